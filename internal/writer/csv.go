package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// CSVWriter writes normalized messages as CSV, one message per row.
type CSVWriter struct {
	// IncludeHeader controls whether the column header row is written.
	IncludeHeader bool
}

var csvColumns = []string{
	"gateway", "type", "txn_type", "gateway_txn_id", "order_id",
	"date", "settled_date", "settlement_batch_reference",
	"currency", "gross", "fee",
	"original_fee_amount", "original_net_amount",
	"settled_currency", "settled_total_amount", "settled_fee_amount",
	"settled_net_amount", "exchange_rate",
	"email", "first_name", "last_name",
	"subscr_id", "gateway_parent_id", "backend_processor",
}

// WriteToFile writes messages to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, messages []models.Message) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, messages)
}

// Write writes messages in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, messages []models.Message) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader {
		if err := writer.Write(csvColumns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for i := range messages {
		if err := writer.Write(messageRow(&messages[i])); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}

func messageRow(m *models.Message) []string {
	return []string{
		m.Gateway, m.Type, m.TxnType, m.GatewayTxnID, m.OrderID,
		formatUnix(m.Date), formatUnix(m.SettledDate), m.SettlementBatchReference,
		m.Currency, formatAmount(m.Gross), formatAmount(m.Fee),
		formatAmount(m.OriginalFee), formatAmount(m.OriginalNet),
		m.SettledCurrency, formatAmount(m.SettledTotal), formatAmount(m.SettledFee),
		formatAmount(m.SettledNet), formatRate(m.ExchangeRate),
		m.Email, m.FirstName, m.LastName,
		m.SubscrID, m.GatewayParentID, m.BackendProcessor,
	}
}

func formatAmount(amount float64) string {
	if amount == 0 {
		return ""
	}
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func formatRate(rate float64) string {
	if rate == 0 {
		return ""
	}
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10)
}
