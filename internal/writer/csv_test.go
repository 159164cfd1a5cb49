package writer

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insightdelivered/audit-report-converter/internal/models"
)

func sampleMessages() []models.Message {
	ct := int64(46239229)
	return []models.Message{
		{
			Gateway:                  "paypal_ec",
			GatewayTxnID:             "1V551844CE5526421",
			OrderID:                  "46239229.1",
			Date:                     1488482395,
			SettledDate:              1488482395,
			SettlementBatchReference: "20170302",
			Currency:                 "JPY",
			Gross:                    150,
			Fee:                      43,
			OriginalFee:              -43,
			OriginalNet:              107,
			SettledCurrency:          "JPY",
			SettledTotal:             150,
			SettledFee:               -43,
			SettledNet:               107,
			ExchangeRate:             1,
			Email:                    "donor@generous.net",
			FirstName:                "Cindy Lou",
			LastName:                 "Who",
			ContributionTrack:        &ct,
		},
		{
			Gateway:         "paypal",
			Type:            "refund",
			GatewayTxnID:    "3GJH3GJH3GJH3GJH3",
			GatewayParentID: "1V551844CE5526421",
			Currency:        "JPY",
			Gross:           150,
		},
	}
}

func TestCSVWriterWithHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, sampleMessages()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}

	header := records[0]
	if header[0] != "gateway" || header[3] != "gateway_txn_id" {
		t.Errorf("unexpected header: %v", header)
	}
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			t.Errorf("row width %d does not match header width %d", len(rec), len(header))
		}
	}

	row := records[1]
	byName := make(map[string]string, len(header))
	for i, name := range header {
		byName[name] = row[i]
	}
	want := map[string]string{
		"gateway":             "paypal_ec",
		"gateway_txn_id":      "1V551844CE5526421",
		"order_id":            "46239229.1",
		"date":                "1488482395",
		"currency":            "JPY",
		"gross":               "150",
		"fee":                 "43",
		"original_fee_amount": "-43",
		"exchange_rate":       "1",
		"first_name":          "Cindy Lou",
	}
	for name, expected := range want {
		if byName[name] != expected {
			t.Errorf("%s: got %q, want %q", name, byName[name], expected)
		}
	}

	if records[2][1] != "refund" {
		t.Errorf("second row type: got %q, want refund", records[2][1])
	}
}

func TestCSVWriterWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, sampleMessages()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0][0] != "paypal_ec" {
		t.Errorf("first field: got %q, want paypal_ec", records[0][0])
	}
}

func TestCSVWriterZeroValuesBlank(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, []models.Message{{Gateway: "paypal"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output back: %v", err)
	}
	// Unset amounts and timestamps render as empty cells, not zeros.
	row := records[0]
	for i, name := range csvColumns {
		switch name {
		case "gateway":
			continue
		default:
			if row[i] != "" {
				t.Errorf("%s: got %q, want empty", name, row[i])
			}
		}
	}
}

func TestCSVWriterToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{IncludeHeader: true}
	if err := w.WriteToFile(path, sampleMessages()); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "gateway,") {
		t.Errorf("file does not start with the header: %q", string(data)[:20])
	}
}
