// Package report reads the processor's multi-record-type flat report files.
//
// Every line starts with a type code: RH/FH/SH section headers, CH column
// headers, SB body rows, RF/SF/RC footers. Column header lines are cached and
// used to key subsequent body lines; configured footer types are retained
// verbatim for aggregate parsing.
package report

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/insightdelivered/audit-report-converter/internal/logger"
)

// Row is one parsed report line.
type Row struct {
	// Type is the line's record type code, BOM-stripped.
	Type string
	// Fields are the raw positional fields, including the type code at
	// index 0. Always populated; footers are only usable this way.
	Fields []string
	// Values keys body-line fields by the active column header set. Nil for
	// retained footer rows.
	Values map[string]string
}

// Get returns the named column value, or "" when the column is absent or the
// row is not keyed.
func (r Row) Get(name string) string {
	return r.Values[name]
}

// Has reports whether the row carries the named column at all.
func (r Row) Has(name string) bool {
	_, ok := r.Values[name]
	return ok
}

// File is the tokenized content of one report file.
type File struct {
	// Rows are the body and retained footer rows, in file order.
	Rows []Row
	// Headers are the section header lines (record types ending in "H",
	// other than CH), retained verbatim.
	Headers [][]string
}

// ReadFile tokenizes the report at path. Files ending in .gz, or starting
// with the gzip magic bytes, are decompressed transparently. bodyTypes are
// the record types keyed against the column headers; footerTypes are retained
// as raw rows.
func ReadFile(path string, bodyTypes, footerTypes []string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var src io.Reader = br

	gzipped := strings.HasSuffix(strings.ToLower(path), ".gz")
	if !gzipped {
		if head, err := br.Peek(2); err == nil {
			gzipped = bytes.Equal(head, gzipMagic)
		}
	}
	if gzipped {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip report %q: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	return Read(src, bodyTypes, footerTypes)
}

// Read tokenizes report content from r. See ReadFile.
func Read(r io.Reader, bodyTypes, footerTypes []string) (*File, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	file := &File{}
	var columnHeaders []string

	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A structurally broken line must not abort the file.
			logger.L().Warn().Err(err).Msg("skipping unreadable report line")
			continue
		}

		// Skip lines that are a single empty field.
		if len(line) == 1 && line[0] == "" {
			continue
		}

		line[0] = stripBOM(line[0])
		recordType := line[0]

		if recordType == "CH" {
			columnHeaders = line
			continue
		}

		if !contains(bodyTypes, recordType) && !contains(footerTypes, recordType) {
			// Section headers are kept for the settlement-date lookup.
			if strings.HasSuffix(recordType, "H") {
				file.Headers = append(file.Headers, line)
			}
			continue
		}

		// Ignore everything until the column headers have been seen.
		if columnHeaders == nil {
			continue
		}

		row := Row{Type: recordType, Fields: line}
		if contains(bodyTypes, recordType) {
			if len(line) != len(columnHeaders) {
				logger.L().Warn().
					Int("expected", len(columnHeaders)).
					Int("got", len(line)).
					Msg("skipping report line: column count mismatch")
				continue
			}
			row.Values = make(map[string]string, len(columnHeaders))
			for i, name := range columnHeaders {
				row.Values[name] = line[i]
			}
		}
		file.Rows = append(file.Rows, row)
	}

	return file, nil
}

var gzipMagic = []byte{0x1f, 0x8b}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\xef\xbb\xbf")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
