package parser

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insightdelivered/audit-report-converter/internal/logger"
)

// Column order used by the test fixtures. Real reports carry more columns;
// the tokenizer keys rows off the CH line, so a subset is enough.
var trrColumns = []string{
	"Transaction ID", "Invoice ID", "PayPal Reference ID", "PayPal Reference ID Type",
	"Transaction Event Code", "Transaction Initiation Date", "Transaction Completion Date",
	"Transaction Debit or Credit", "Gross Transaction Amount", "Gross Transaction Currency",
	"Fee Debit or Credit", "Fee Amount", "Custom Field", "Transaction Subject",
	"Transactional Status", "Payment Source", "Payer's Account ID",
	"First Name", "Last Name", "Card Type",
	"Billing Address Line1", "Billing Address Line2", "Billing Address City",
	"Billing Address State", "Billing Address Zip", "Billing Address Country",
	"Shipping Address Line1", "Shipping Address Line2", "Shipping Address City",
	"Shipping Address State", "Shipping Address Zip", "Shipping Address Country",
}

var stlColumns = []string{
	"Transaction ID", "Invoice ID", "PayPal Reference ID", "PayPal Reference ID Type",
	"Transaction Event Code", "Transaction Initiation Date", "Transaction Completion Date",
	"Transaction Debit or Credit", "Gross Transaction Amount", "Gross Transaction Currency",
	"Fee Debit or Credit", "Fee Amount", "Custom Field", "Transaction Subject",
	"Payment Source",
}

var sarColumns = []string{
	"Subscription ID", "Subscription Action Type", "Subscription Currency",
	"Subscription Creation Date", "Subscription Payer Name", "Subscription Payer email address",
	"Subscription Period 3", "Period 3 Amount",
	"Shipping Address Line1", "Shipping Address City", "Shipping Address State",
	"Shipping Address Zip", "Shipping Address Country",
}

// baseTRRRow is a settled Express Checkout donation: 150.00 JPY gross with a
// 43.00 debit fee.
func baseTRRRow() map[string]string {
	return map[string]string{
		"Transaction ID":              "1V551844CE5526421",
		"Invoice ID":                  "46239229.1",
		"Transaction Event Code":      "T0006",
		"Transaction Initiation Date": "2017/03/02 11:19:55 -0800",
		"Transaction Completion Date": "2017/03/02 11:19:55 -0800",
		"Transaction Debit or Credit": "CR",
		"Gross Transaction Amount":    "15000",
		"Gross Transaction Currency":  "JPY",
		"Fee Debit or Credit":         "DR",
		"Fee Amount":                  "4300",
		"Transactional Status":        "S",
		"Payment Source":              "Express Checkout",
		"Payer's Account ID":          "donor@generous.net",
		"First Name":                  "Cindy Lou",
		"Last Name":                   "Who",
		"Billing Address Line1":       "321 Notta Boulevard",
		"Billing Address City":        "Whoville",
		"Billing Address State":       "OR",
		"Billing Address Zip":         "97211",
		"Billing Address Country":     "US",
	}
}

func baseSARRow() map[string]string {
	return map[string]string{
		"Subscription ID":                  "S-7J123456DS987654B",
		"Subscription Action Type":         "S0000",
		"Subscription Currency":            "EUR",
		"Subscription Creation Date":       "2017/04/30",
		"Subscription Payer Name":          "Donantus Recurricus",
		"Subscription Payer email address": "recurring.donor@example.com",
		"Subscription Period 3":            "1 M",
		"Period 3 Amount":                  "300",
		"Shipping Address Line1":           "Rue Faux, 41",
		"Shipping Address City":            "Paris",
		"Shipping Address State":           "Paris",
		"Shipping Address Zip":             "12345",
		"Shipping Address Country":         "FR",
	}
}

// bodyLine renders one SB line from a column:value map.
func bodyLine(t *testing.T, columns []string, values map[string]string) string {
	t.Helper()
	fields := make([]string, 0, len(columns)+1)
	fields = append(fields, "SB")
	for _, col := range columns {
		fields = append(fields, values[col])
	}
	return csvLine(t, fields)
}

func headerLine(t *testing.T, columns []string) string {
	t.Helper()
	return csvLine(t, append([]string{"CH"}, columns...))
}

func csvLine(t *testing.T, fields []string) string {
	t.Helper()
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(fields); err != nil {
		t.Fatalf("building fixture line: %v", err)
	}
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

// writeReport writes fixture lines to a file named so family detection
// works, and returns its path.
func writeReport(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

func int64ptr(n int64) *int64 { return &n }

// captureLog redirects the package logger into a buffer for the duration of
// the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logger.SetWriter(&buf)
	t.Cleanup(func() { logger.Restore(prev) })
	return &buf
}

// assertClose compares floats to within a billionth, which is tighter than
// any report amount but tolerant of IEEE noise in back-computed fees.
func assertClose(t *testing.T, field string, got, want float64) {
	t.Helper()
	diff := got - want
	if diff < -1e-9 || diff > 1e-9 {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}
