package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleTRR = "RH,2017/03/03 01:00:00 -0800,TRR,01\n" +
	"CH,Transaction ID,Invoice ID,PayPal Reference ID,PayPal Reference ID Type," +
	"Transaction Event Code,Transaction Initiation Date,Transaction Completion Date," +
	"Transaction Debit or Credit,Gross Transaction Amount,Gross Transaction Currency," +
	"Fee Debit or Credit,Fee Amount,Custom Field,Transaction Subject," +
	"Transactional Status,Payment Source,Payer's Account ID,First Name,Last Name,Card Type," +
	"Billing Address Line1,Billing Address Line2,Billing Address City,Billing Address State," +
	"Billing Address Zip,Billing Address Country," +
	"Shipping Address Line1,Shipping Address Line2,Shipping Address City,Shipping Address State," +
	"Shipping Address Zip,Shipping Address Country\n" +
	"SB,1V551844CE5526421,46239229.1,,,T0006,2017/03/02 11:19:55 -0800,2017/03/02 11:19:55 -0800," +
	"CR,15000,JPY,DR,4300,,,S,Express Checkout,donor@generous.net,Cindy Lou,Who,," +
	"321 Notta Boulevard,,Whoville,OR,97211,US,,,,,,\n" +
	"SF,1\n"

func uploadRequest(t *testing.T, filename, family, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fmt.Fprint(fw, content); err != nil {
		t.Fatal(err)
	}
	if family != "" {
		if err := mw.WriteField("family", family); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func parseResponse(t *testing.T, resp *http.Response) ParseResponse {
	t.Helper()
	defer resp.Body.Close()
	var parsed ParseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return parsed
}

func TestHandleHealth(t *testing.T) {
	app := NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want ok", body["status"])
	}
}

func TestHandleParseUpload(t *testing.T) {
	app := NewApp()

	resp, err := app.Test(uploadRequest(t, "TRR-20170302.01.009.csv", "", sampleTRR))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	parsed := parseResponse(t, resp)
	if !parsed.Success {
		t.Fatalf("expected success, got error %q", parsed.Error)
	}
	if parsed.Family != "TRR" {
		t.Errorf("family: got %q, want TRR", parsed.Family)
	}
	if parsed.Count != 1 || len(parsed.Messages) != 1 {
		t.Fatalf("count %d, messages %d; want 1 message", parsed.Count, len(parsed.Messages))
	}
	if parsed.ByTopic["donation"] != 1 {
		t.Errorf("byTopic: got %v, want one donation", parsed.ByTopic)
	}
	if parsed.Messages[0].GatewayTxnID != "1V551844CE5526421" {
		t.Errorf("gateway_txn_id: got %q", parsed.Messages[0].GatewayTxnID)
	}
}

func TestHandleParseExplicitFamily(t *testing.T) {
	app := NewApp()

	// Family from the form field, not the file name.
	resp, err := app.Test(uploadRequest(t, "upload.csv", "trr", sampleTRR))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	parsed := parseResponse(t, resp)
	if parsed.Family != "TRR" || parsed.Count != 1 {
		t.Errorf("got family %q count %d, want TRR and 1", parsed.Family, parsed.Count)
	}
}

func TestHandleParseMissingFile(t *testing.T) {
	app := NewApp()

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(""))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	parsed := parseResponse(t, resp)
	if parsed.Success {
		t.Error("expected success=false")
	}
	if !strings.Contains(parsed.Error, "file") {
		t.Errorf("error message: got %q", parsed.Error)
	}
	if parsed.Messages == nil {
		t.Error("messages should be an empty array, not null")
	}
}

func TestHandleParseUnknownFamily(t *testing.T) {
	app := NewApp()

	resp, err := app.Test(uploadRequest(t, "upload.csv", "xyz", sampleTRR))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	parsed := parseResponse(t, resp)
	if !strings.Contains(parsed.Error, "family") {
		t.Errorf("error message: got %q", parsed.Error)
	}
}

func TestHandleParseUndetectableFamily(t *testing.T) {
	app := NewApp()

	resp, err := app.Test(uploadRequest(t, "upload.csv", "", sampleTRR))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}
