package parser

import (
	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// trrParser normalizes Transaction Detail rows: one row per payment, refund,
// or dispute event, with donor contact details.
type trrParser struct{}

func (p *trrParser) family() models.Family {
	return models.FamilyTransactionDetail
}

func (p *trrParser) message(c *rowContext) (*models.Message, error) {
	if status := c.row.Get(colStatus); status != "S" {
		return nil, ignoredf("transaction status skipped: %q", status)
	}
	if c.isForeignSubLedger() {
		return nil, ignoredf("foreign sub-ledger transaction skipped")
	}
	if c.isDebitToOtherPayee() {
		return nil, unhandledf("debit payment to a different payee skipped (code %s)", c.code())
	}

	// Prefer the billing address group; shipping is the fallback when no
	// billing address was collected.
	addrPrefix := "Billing Address "
	if c.row.Get("Billing Address Line1") == "" {
		addrPrefix = "Shipping Address "
	}

	date, err := parseDate(c.row.Get(colInitiationDate))
	if err != nil {
		return nil, normalizationf("bad initiation date: %v", err)
	}
	settledDate, err := parseDate(c.row.Get(colCompletionDate))
	if err != nil {
		return nil, normalizationf("bad completion date: %v", err)
	}

	gateway := c.gateway()
	if c.isOrchestrated() {
		gateway = gatewayOrchestrator
	}

	msg := &models.Message{
		Gateway:                  gateway,
		AuditFileGateway:         gatewayPayPal,
		GatewayTxnID:             c.gatewayTxnID(),
		Date:                     date,
		SettledDate:              settledDate,
		SettlementBatchReference: batchReference(c.row.Get(colCompletionDate)),
		Gross:                    parseAmount(c.row.Get(colGrossAmount)) / 100,
		Currency:                 c.row.Get(colGrossCurrency),
		Fee:                      c.fee(),
		OriginalFee:              c.originalFee(),
		OriginalNet:              c.originalNet(),
		SettledCurrency:          c.settledCurrency(),
		SettledTotal:             c.settledTotal(),
		SettledFee:               c.settledFee(),
		SettledNet:               c.settledNet(),
		ExchangeRate:             c.exchangeRate(),
		GatewayStatus:            c.row.Get(colStatus),
		PaymentMethod:            gatewayPayPal,
		PaymentSubmethod:         c.row.Get("Card Type"),
		Email:                    c.row.Get("Payer's Account ID"),
		StreetAddress:            c.row.Get(addrPrefix + "Line1"),
		SupplementalAddress1:     c.row.Get(addrPrefix + "Line2"),
		City:                     c.row.Get(addrPrefix + "City"),
		StateProvince:            c.row.Get(addrPrefix + "State"),
		PostalCode:               c.row.Get(addrPrefix + "Zip"),
		Country:                  c.row.Get(addrPrefix + "Country"),
		FirstName:                c.row.Get("First Name"),
		LastName:                 c.row.Get("Last Name"),
		OrderID:                  c.orderID(),
		ContributionTrack:        c.contributionTrackingID(),
	}

	c.applyOrchestratorFields(msg)
	c.applyRecurringFields(msg)
	if err := c.applyReversalFields(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
