// Package importer turns uploaded CSV files into normalized company rows
// through a preview/confirm workflow. Confirming is a destructive full-table
// replace, so parsed rows are buffered in a short-lived preview session until
// the caller commits them.
package importer

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var ErrUnreadable = errors.New("importer: unreadable file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode converts uploaded bytes to text. UTF-8 first (BOM stripped), then
// Latin-1. Latin-1 maps every byte, so the unreadable branch only catches
// inputs that cannot be text at all (embedded NUL).
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if bytes.IndexByte(raw, 0x00) >= 0 {
		return "", ErrUnreadable
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", ErrUnreadable
	}
	return string(out), nil
}

// sampleLines returns up to the first 5 non-blank lines.
func sampleLines(data string) []string {
	var sample []string
	for _, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == 5 {
			break
		}
	}
	return sample
}

// sniffDelimiter counts commas vs semicolons over the sample. Semicolon wins
// only when it strictly outnumbers commas. Known limitation: quoted fields
// containing the other delimiter can skew the counts.
func sniffDelimiter(sample []string) rune {
	var commas, semis int
	for _, line := range sample {
		commas += strings.Count(line, ",")
		semis += strings.Count(line, ";")
	}
	if semis > commas {
		return ';'
	}
	return ','
}

// sniffHeader decides whether the first record is a header row. A first row
// is a header when none of its cells parses as a number while some later
// cell in the same column does, or when a cell matches a known column alias.
// Ambiguous inputs default to "has header".
func sniffHeader(records [][]string) bool {
	if len(records) == 0 {
		return true
	}
	first := records[0]
	for _, cell := range first {
		if isNumeric(cell) {
			return false
		}
		if _, ok := aliasIndex[strings.TrimSpace(cell)]; ok {
			return true
		}
	}
	for _, rec := range records[1:] {
		for col, cell := range rec {
			if col < len(first) && isNumeric(cell) {
				return true
			}
		}
	}
	return true
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case (r == '-' || r == '+') && i == 0:
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
