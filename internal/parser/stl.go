package parser

import (
	"strings"
	"time"

	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// stlParser normalizes Settlement Report rows. Body rows carry the same
// event data as the detail report but are inherently post-settlement, so the
// message always includes both original- and settled-currency totals. The
// per-currency "RF" aggregate footer becomes one payout message.
type stlParser struct{}

func (p *stlParser) family() models.Family {
	return models.FamilySettlement
}

func (p *stlParser) message(c *rowContext) (*models.Message, error) {
	if c.row.Type == "RF" {
		return p.aggregateMessage(c)
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
		OriginalCurrency:         c.row.Get(colGrossCurrency),
		Fee:                      c.fee(),
		OriginalTotal:            c.originalTotal(),
		OriginalFee:              c.originalFee(),
		OriginalNet:              c.originalNet(),
		SettledCurrency:          c.settledCurrency(),
		SettledTotal:             c.settledTotal(),
		SettledFee:               c.settledFee(),
		SettledNet:               c.settledNet(),
		ExchangeRate:             c.exchangeRate(),
		PaymentMethod:            gatewayPayPal,
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

// aggregateMessage turns the settlement footer's per-currency running totals
// into a payout message: gross credits minus debits, plus reversal credits
// minus reversal debits, plus that currency's withdrawals from the
// correlation index. The settlement date lives on the retained "SH" header
// line, not the footer itself.
func (p *stlParser) aggregateMessage(c *rowContext) (*models.Message, error) {
	if len(c.row.Fields) < 6 {
		return nil, normalizationf("settlement aggregate row has %d fields, need 6", len(c.row.Fields))
	}

	currency := c.row.Fields[1]
	credits := parseAmount(c.row.Fields[2])
	debits := parseAmount(c.row.Fields[3])
	reversalCredits := parseAmount(c.row.Fields[4])
	reversalDebits := parseAmount(c.row.Fields[5])

	settledTotal := (credits - debits + reversalCredits - reversalDebits + c.idx.payoutTotal(currency)) / 100

	settlementDate, offset := p.settlementDate(c)
	if settlementDate == "" {
		return nil, normalizationf("settlement aggregate row without a settlement date header")
	}
	ts, err := time.Parse("2006/01/02 -0700", settlementDate+" "+offset)
	if err != nil {
		return nil, normalizationf("bad settlement date %q %q: %v", settlementDate, offset, err)
	}

	batchRef := strings.ReplaceAll(settlementDate, "/", "")
	return &models.Message{
		Gateway:                  gatewayPayPal,
		Type:                     "payout",
		GatewayTxnID:             batchRef,
		InvoiceID:                batchRef,
		SettlementBatchReference: batchRef,
		SettledCurrency:          currency,
		SettledTotal:             settledTotal,
		SettledDate:              ts.Unix(),
		Date:                     ts.Unix(),
	}, nil
}

// settlementDate extracts the date (first 10 chars) and UTC offset (last 5)
// from the retained settlement header line.
func (p *stlParser) settlementDate(c *rowContext) (date, offset string) {
	for _, header := range c.headers {
		if len(header) > 1 && header[0] == "SH" {
			value := header[1]
			if len(value) >= 10 {
				date = value[:10]
			}
			if len(value) >= 5 {
				offset = value[len(value)-5:]
			}
		}
	}
	return date, offset
}
