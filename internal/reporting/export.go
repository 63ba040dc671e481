package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"callcenter-platform/internal/calls"
)

// exportHeader is the fixed 16-column header of the consolidated export.
var exportHeader = []string{
	"Nom de l'entreprise", "Téléphone", "Produit", "Activité", "Localisation",
	"Régime/Forme", "NIU", "Validité score", "Statut numéros", "Statut appel",
	"Présentation", "Questions libres", "Questions orientées", "Enquête",
	"Date-temps", "Enregistrement vocal",
}

const (
	CSVContentType   = "text/csv; charset=utf-8"
	ExcelContentType = "application/vnd.ms-excel"
)

// ExportFilename derives the dated export basename, without extension.
func ExportFilename(now time.Time) string {
	return "PME_Transformation_consolidee_" + now.Format("20060102")
}

// ExportRows renders one row per call record, newest first, using the
// operator-facing French labels.
func (s *Service) ExportRows(ctx context.Context) ([][]string, error) {
	records, err := s.calls.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	recordings, err := s.calls.LatestRecordingPerCall(ctx)
	if err != nil {
		return nil, err
	}
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(companies))
	for i, c := range companies {
		byID[c.ID] = i
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		i, ok := byID[rec.CompanyID]
		if !ok {
			continue
		}
		c := companies[i]

		audio := "Non"
		if _, ok := recordings[rec.ID]; ok {
			audio = "Oui"
		}

		stamped := rec.CreatedAt
		if rec.StatusMarkedAt != nil {
			stamped = *rec.StatusMarkedAt
		}

		callStatus := ""
		if rec.CallStatus != "" {
			callStatus = calls.CallStatusDisplay(rec.CallStatus)
		}

		rows = append(rows, []string{
			c.Name,
			c.Phone,
			c.Product,
			c.Activity,
			c.Location,
			c.LegalForm,
			c.NIU,
			strconv.FormatFloat(c.ValidityScore, 'g', -1, 64),
			calls.StatusNumeroDisplay(rec.StatusNumero),
			callStatus,
			levelOrEmpty(rec.PresentationLevel),
			levelOrEmpty(rec.QuestionsLibresLevel),
			levelOrEmpty(rec.QuestionsOrienteesLevel),
			rec.EnqueteStatus(),
			stamped.Format("2006-01-02 15:04"),
			audio,
		})
	}
	return rows, nil
}

func levelOrEmpty(l calls.Level) string {
	if l == "" {
		return ""
	}
	return calls.LevelDisplay(l)
}

// WriteCSV writes the export as comma-separated UTF-8.
func WriteCSV(w io.Writer, rows [][]string) error {
	return writeDelimited(w, rows, ',')
}

// WriteExcelShim writes the export as tab-separated text. The caller pairs
// it with an .xlsm filename and the Excel content type so spreadsheet
// software opens it directly; the payload itself stays plain delimited
// text.
func WriteExcelShim(w io.Writer, rows [][]string) error {
	return writeDelimited(w, rows, '\t')
}

func writeDelimited(w io.Writer, rows [][]string, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("reporting: write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("reporting: write rows: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
