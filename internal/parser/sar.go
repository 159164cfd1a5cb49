package parser

import (
	"strings"

	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// Subscription Agreement report columns.
const (
	colSubscriptionID       = "Subscription ID"
	colSubscriptionPayer    = "Subscription Payer Name"
	colSubscriptionEmail    = "Subscription Payer email address"
	colSubscriptionCurrency = "Subscription Currency"
	colSubscriptionAmount   = "Period 3 Amount"
	colSubscriptionPeriod   = "Subscription Period 3"
	colSubscriptionCreated  = "Subscription Creation Date"
	colSubscriptionAction   = "Subscription Action Type"
)

var sarRequiredFields = []string{
	colSubscriptionAmount,
	colSubscriptionCurrency,
	colSubscriptionID,
	colSubscriptionPayer,
	colSubscriptionPeriod,
	colSubscriptionCreated,
	colSubscriptionAction,
}

// sarParser normalizes Subscription Agreement rows describing the
// recurring-payment lifecycle: signup, cancel and end-of-term. Modify rows
// are intentionally skipped.
type sarParser struct{}

func (p *sarParser) family() models.Family {
	return models.FamilySubscription
}

func (p *sarParser) message(c *rowContext) (*models.Message, error) {
	if missing := p.missingFields(c); len(missing) > 0 {
		return nil, normalizationf("row is missing required fields: [%s]", strings.Join(missing, ", "))
	}

	first, last := splitName(c.row.Get(colSubscriptionPayer))
	date, err := parseDate(c.row.Get(colSubscriptionCreated))
	if err != nil {
		return nil, normalizationf("bad subscription creation date: %v", err)
	}

	msg := &models.Message{
		Gateway:       gatewayPayPal,
		SubscrID:      c.row.Get(colSubscriptionID),
		Currency:      c.row.Get(colSubscriptionCurrency),
		Gross:         parseAmount(c.row.Get(colSubscriptionAmount)) / 100,
		Email:         c.row.Get(colSubscriptionEmail),
		FirstName:     first,
		LastName:      last,
		StreetAddress: c.row.Get("Shipping Address Line1"),
		City:          c.row.Get("Shipping Address City"),
		StateProvince: c.row.Get("Shipping Address State"),
		PostalCode:    c.row.Get("Shipping Address Zip"),
		Country:       c.row.Get("Shipping Address Country"),
	}

	period := c.row.Get(colSubscriptionPeriod)
	freq, ok := c.cfg.SubscriptionPeriods[period]
	if !ok {
		return nil, normalizationf("unknown subscription period %q", period)
	}
	msg.FrequencyInterval = freq.Interval
	msg.FrequencyUnit = freq.Unit

	action := c.row.Get(colSubscriptionAction)
	switch c.cfg.SubscriptionActions[action] {
	case "signup":
		msg.TxnType = "subscr_signup"
		msg.StartDate = date
		msg.CreateDate = date
	case "modify":
		// Modifications carry no money movement and no state we track.
		return nil, ignoredf("subscription modify row skipped")
	case "cancel":
		msg.TxnType = "subscr_cancel"
		msg.CancelDate = date
	case "eot":
		msg.TxnType = "subscr_eot"
	default:
		return nil, normalizationf("unknown subscription action type: %q", action)
	}

	return msg, nil
}

func (p *sarParser) missingFields(c *rowContext) []string {
	var missing []string
	for _, field := range sarRequiredFields {
		if strings.TrimSpace(c.row.Get(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// splitName splits a single donor-name field on whitespace: first token is
// the first name, everything else the last name.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
