package parser

import (
	"github.com/insightdelivered/audit-report-converter/internal/config"
	"github.com/insightdelivered/audit-report-converter/internal/logger"
	"github.com/insightdelivered/audit-report-converter/internal/models"
	"github.com/insightdelivered/audit-report-converter/internal/report"
)

// Report column names shared by the transaction-detail and settlement
// families.
const (
	colEventCode      = "Transaction Event Code"
	colTransactionID  = "Transaction ID"
	colInvoiceID      = "Invoice ID"
	colReferenceID    = "PayPal Reference ID"
	colReferenceType  = "PayPal Reference ID Type"
	colGrossAmount    = "Gross Transaction Amount"
	colGrossCurrency  = "Gross Transaction Currency"
	colDebitOrCredit  = "Transaction Debit or Credit"
	colFeeAmount      = "Fee Amount"
	colFeeDebitCredit = "Fee Debit or Credit"
	colCustomField    = "Custom Field"
	colInitiationDate = "Transaction Initiation Date"
	colCompletionDate = "Transaction Completion Date"
	colStatus         = "Transactional Status"
	colPaymentSource  = "Payment Source"
)

// correlationIndex holds the rows that exist only to support other rows.
// Built in one full pass before any primary row is parsed: conversion legs,
// fee rows and payout rows are not guaranteed to precede the rows that need
// them, so a streaming single-pass design would be incorrect.
type correlationIndex struct {
	// conversions buckets currency-conversion legs by reference id, in
	// encounter order: original leg first, converted leg second.
	conversions map[string][]report.Row
	// payouts accumulates withdrawal amounts (raw hundredths) by currency.
	payouts map[string][]float64
	// fees indexes dispute fee rows by the reference they must be merged
	// under: a chargeback fee points at its chargeback's transaction id, a
	// fee reversal is merged via its own invoice id.
	fees map[string]report.Row
}

// legs returns the conversion pair for a reference id, or nil when no
// complete pair exists.
func (idx *correlationIndex) legs(referenceID string) []report.Row {
	legs := idx.conversions[referenceID]
	if len(legs) != 2 {
		return nil
	}
	return legs
}

func (idx *correlationIndex) payoutTotal(currency string) float64 {
	var sum float64
	for _, amount := range idx.payouts[currency] {
		sum += amount
	}
	return sum
}

// buildIndex classifies every keyed row once, splitting out ancillary rows
// into the index and returning the remaining primary rows in file order.
// Retained (non-keyed) footer rows are always primary.
func buildIndex(cfg *config.Config, rows []report.Row) (*correlationIndex, []report.Row) {
	idx := &correlationIndex{
		conversions: make(map[string][]report.Row),
		payouts:     make(map[string][]float64),
		fees:        make(map[string]report.Row),
	}

	var primaries []report.Row
	for _, row := range rows {
		if row.Values == nil {
			primaries = append(primaries, row)
			continue
		}

		switch cfg.Classify(row.Get(colEventCode)) {
		case models.TypeCurrencyConversion:
			key := row.Get(colInvoiceID)
			idx.conversions[key] = append(idx.conversions[key], row)
		case models.TypeWithdrawal:
			currency := row.Get(colGrossCurrency)
			idx.payouts[currency] = append(idx.payouts[currency], parseAmount(row.Get(colGrossAmount)))
		case models.TypeChargebackFee:
			idx.fees[row.Get(colReferenceID)] = row
		case models.TypeFeeReversal:
			idx.fees[row.Get(colInvoiceID)] = row
		default:
			primaries = append(primaries, row)
		}
	}

	for ref, legs := range idx.conversions {
		if len(legs) != 2 {
			logger.L().Warn().
				Str("reference_id", ref).
				Int("legs", len(legs)).
				Msg("currency conversion reference does not have exactly two legs; treating as unconverted")
		}
	}

	return idx, primaries
}
