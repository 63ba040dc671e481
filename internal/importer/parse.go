package importer

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"callcenter-platform/internal/company"
)

// Parser converts an uploaded file into normalized company rows. The zero
// value is not usable; construct with NewParser.
type Parser struct {
	maxFieldLen int
}

func NewParser(maxFieldLen int) *Parser {
	if maxFieldLen <= 0 {
		maxFieldLen = 255
	}
	return &Parser{maxFieldLen: maxFieldLen}
}

// Parse decodes, sniffs delimiter and header, maps columns by alias or
// position, and normalizes every row. An empty file yields an empty slice.
// Short rows degrade to field defaults rather than failing the parse.
func (p *Parser) Parse(raw []byte) ([]company.Company, error) {
	data, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}

	delim := sniffDelimiter(sampleLines(data))

	r := csv.NewReader(strings.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	hasHeader := sniffHeader(records)

	var header []string
	if hasHeader {
		header = records[0]
		records = records[1:]
	}

	rows := make([]company.Company, 0, len(records))
	for i, rec := range records {
		var rw row
		if hasHeader {
			values := make(map[string]string, len(header))
			for col, h := range header {
				if col < len(rec) {
					values[strings.TrimSpace(h)] = rec[col]
				}
			}
			rw = headeredRow{values: values}
		} else {
			rw = positionalRow{values: rec}
		}
		rows = append(rows, p.normalize(rw, i+1))
	}
	return rows, nil
}

// normalize applies trimming and per-field defaults. idx is the 1-based row
// number used for the fallback company name.
func (p *Parser) normalize(rw row, idx int) company.Company {
	trim := func(s string) string {
		return truncate(strings.TrimSpace(s), p.maxFieldLen)
	}

	name := trim(rw.field(nameAliases, 0))
	if name == "" {
		name = fmt.Sprintf("Entreprise %d", idx)
	}
	phone := trim(rw.field(phoneAliases, 1))
	if phone == "" {
		phone = "Non renseigne"
	}

	var score float64
	if raw := strings.TrimSpace(rw.field(scoreAliases, 7)); raw != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			score = f
		}
	}

	status := company.Status(trim(rw.field(statusAliases, 8)))
	if status == "" || !company.IsValidStatus(status) {
		status = company.StatusPending
	}

	return company.Company{
		Name:          name,
		Phone:         phone,
		Product:       trim(rw.field(productAliases, 2)),
		Activity:      trim(rw.field(activityAliases, 3)),
		Location:      trim(rw.field(locationAliases, 4)),
		LegalForm:     trim(rw.field(legalAliases, 5)),
		NIU:           trim(rw.field(niuAliases, 6)),
		ValidityScore: score,
		Status:        status,
	}
}

// truncate cuts s to at most limit bytes, backing up so a multibyte rune is
// never split. The original trims characters; byte slicing alone could emit
// invalid UTF-8 that the database would reject.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
