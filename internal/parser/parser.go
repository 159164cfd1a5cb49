// Package parser turns tokenized audit report files into normalized
// transaction messages. Parsing is two-pass: a correlation index over every
// keyed row is built first (conversion legs, payouts and fee rows may appear
// anywhere relative to the rows that need them), then the primary rows are
// normalized in file order.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/audit-report-converter/internal/config"
	"github.com/insightdelivered/audit-report-converter/internal/logger"
	"github.com/insightdelivered/audit-report-converter/internal/models"
	"github.com/insightdelivered/audit-report-converter/internal/report"
)

// rowParser normalizes one primary row. Implementations are stateless; all
// per-file state travels in the rowContext.
type rowParser interface {
	family() models.Family
	message(c *rowContext) (*models.Message, error)
}

// newRowParser returns the parser for the given report family.
func newRowParser(family models.Family) (rowParser, error) {
	switch family {
	case models.FamilyTransactionDetail:
		return &trrParser{}, nil
	case models.FamilySettlement:
		return &stlParser{}, nil
	case models.FamilySubscription:
		return &sarParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported report family: %q", family)
	}
}

// DetectFamily identifies the report family from the file name: the
// processor prefixes report files with the family code (TRR/STL/SAR).
func DetectFamily(path string) (models.Family, error) {
	name := filepath.Base(path)
	if len(name) < 3 {
		return "", fmt.Errorf("could not detect report family from %q", name)
	}
	switch models.Family(strings.ToUpper(name[:3])) {
	case models.FamilyTransactionDetail:
		return models.FamilyTransactionDetail, nil
	case models.FamilySettlement:
		return models.FamilySettlement, nil
	case models.FamilySubscription:
		return models.FamilySubscription, nil
	}
	return "", fmt.Errorf("could not detect report family from %q; specify it explicitly", name)
}

// ParseFile parses one report file with the default configuration, detecting
// the family from the file name.
func ParseFile(path string) ([]models.Message, error) {
	family, err := DetectFamily(path)
	if err != nil {
		return nil, err
	}
	return ParseFileWithConfig(path, family, config.Default())
}

// ParseFileWithConfig parses one report file as the given family. The
// returned messages are in file order, with the settlement family's
// per-currency aggregates where the footer rows appeared. Row-level problems
// are logged and never abort the file; only failure to read the file itself
// is an error.
func ParseFileWithConfig(path string, family models.Family, cfg *config.Config) ([]models.Message, error) {
	parser, err := newRowParser(family)
	if err != nil {
		return nil, err
	}

	file, err := report.ReadFile(path, cfg.BodyLineTypes, cfg.FooterLineTypes[family])
	if err != nil {
		return nil, err
	}

	return parse(file, parser, cfg), nil
}

// Parse normalizes an already-tokenized report file.
func Parse(file *report.File, family models.Family, cfg *config.Config) ([]models.Message, error) {
	parser, err := newRowParser(family)
	if err != nil {
		return nil, err
	}
	return parse(file, parser, cfg), nil
}

func parse(file *report.File, parser rowParser, cfg *config.Config) []models.Message {
	idx, primaries := buildIndex(cfg, file.Rows)

	messages := make([]models.Message, 0, len(primaries))
	for _, row := range primaries {
		ctx := &rowContext{cfg: cfg, row: row, headers: file.Headers, idx: idx}
		msg, err := parser.message(ctx)
		if err != nil {
			logRowError(err, row)
			continue
		}
		messages = append(messages, *msg)
	}
	return messages
}

func logRowError(err error, row report.Row) {
	var ignored *ignoredError
	if errors.As(err, &ignored) {
		logger.L().Debug().Str("line_type", row.Type).Msg(err.Error())
		return
	}
	// Unhandled and normalization failures both surface as errors; the row
	// is dropped either way but the operator should see why.
	logger.L().Error().Str("line_type", row.Type).Msg(err.Error())
}
