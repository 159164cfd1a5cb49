package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// Config holds the processor-specific data that drives classification and
// parsing: the transaction event code table, the prefix groups used for
// fallback detection, the order-id candidate field priority, which line types
// each report family parses, and the subscription period/action maps.
//
// The shipped defaults cover the processor's published report layout; a YAML
// file can override any of it (new event codes tend to appear before the code
// is updated).
type Config struct {
	// CodeTable maps a transaction event code to its taxonomy member.
	CodeTable map[string]models.TransactionType `yaml:"code_table"`

	// ReversalPrefixes are 3-character code prefixes that mark the
	// refund/chargeback family. A code with one of these prefixes that is
	// missing from CodeTable is an unhandled row, not a silent skip.
	ReversalPrefixes []string `yaml:"reversal_prefixes"`

	// PaymentPrefixes are 3-character code prefixes for payment-like events,
	// used to detect debit payments to a different payee.
	PaymentPrefixes []string `yaml:"payment_prefixes"`

	// OrderIDFields is the ordered list of columns tried when resolving the
	// order id. The first value matching digits[.digits] wins; the order is
	// load-bearing and must not be changed casually.
	OrderIDFields []string `yaml:"order_id_fields"`

	// BodyLineTypes lists the line type codes parsed as keyed body rows.
	BodyLineTypes []string `yaml:"body_line_types"`

	// FooterLineTypes maps a report family to the footer line types retained
	// verbatim for aggregate-row parsing.
	FooterLineTypes map[models.Family][]string `yaml:"footer_line_types"`

	// SubscriptionPeriods maps a raw period value to a billing frequency.
	SubscriptionPeriods map[string]Frequency `yaml:"subscription_periods"`

	// SubscriptionActions maps a subscription action code to a lifecycle
	// action: signup, modify, cancel, or eot.
	SubscriptionActions map[string]string `yaml:"subscription_actions"`
}

// Frequency is a recurring billing interval.
type Frequency struct {
	Interval string `yaml:"interval"`
	Unit     string `yaml:"unit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CodeTable: map[string]models.TransactionType{
			"T0002": models.TypeRecurringPayment,
			// Preapproved payments belong to the orchestrated sub-ledger and
			// are reconciled there, not here.
			"T0003": models.TypePreapprovedPayment,
			"T0006": models.TypeSubscriptionPayment,
			"T0013": models.TypeRiskyPayment,
			"T0100": models.TypeFee,
			"T0104": models.TypeFee,
			// Chargeback fee: usually the row after the chargeback, keyed by
			// the chargeback's transaction id. Merged into the chargeback.
			"T0106": models.TypeChargebackFee,
			"T0113": models.TypeFee,
			"T0200": models.TypeCurrencyConversion,
			"T0400": models.TypeWithdrawal,
			"T1106": models.TypeReversal,
			"T1107": models.TypeRefund,
			// Fee reversals point at the original fee row, which may be in a
			// file months older, so they are merged by invoice id instead.
			"T1108": models.TypeFeeReversal,
			"T1109": models.TypeFeeReversal,
			"T1201": models.TypeChargeback,
			"T1202": models.TypeChargebackReversed,
		},
		ReversalPrefixes: []string{"T11", "T12"},
		PaymentPrefixes:  []string{"T00", "T03", "T05", "T07", "T22"},
		OrderIDFields:    []string{"Invoice ID", "Transaction Subject", "Custom Field"},
		BodyLineTypes:    []string{"SB"},
		FooterLineTypes: map[models.Family][]string{
			models.FamilySettlement: {"RF"},
		},
		SubscriptionPeriods: map[string]Frequency{
			"1 M": {Interval: "1", Unit: "month"},
			"1 Y": {Interval: "1", Unit: "year"},
		},
		SubscriptionActions: map[string]string{
			"S0000": "signup",
			"S0100": "modify",
			"S0200": "cancel",
			"S0300": "eot",
		},
	}
}

// Load reads a YAML file and overlays it on the defaults. Only the sections
// present in the file are replaced.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	cfg := Default()
	cfg.merge(&overlay)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if len(o.CodeTable) > 0 {
		for code, t := range o.CodeTable {
			c.CodeTable[code] = t
		}
	}
	if len(o.ReversalPrefixes) > 0 {
		c.ReversalPrefixes = o.ReversalPrefixes
	}
	if len(o.PaymentPrefixes) > 0 {
		c.PaymentPrefixes = o.PaymentPrefixes
	}
	if len(o.OrderIDFields) > 0 {
		c.OrderIDFields = o.OrderIDFields
	}
	if len(o.BodyLineTypes) > 0 {
		c.BodyLineTypes = o.BodyLineTypes
	}
	if len(o.FooterLineTypes) > 0 {
		for fam, types := range o.FooterLineTypes {
			c.FooterLineTypes[fam] = types
		}
	}
	if len(o.SubscriptionPeriods) > 0 {
		for period, freq := range o.SubscriptionPeriods {
			c.SubscriptionPeriods[period] = freq
		}
	}
	if len(o.SubscriptionActions) > 0 {
		for code, action := range o.SubscriptionActions {
			c.SubscriptionActions[code] = action
		}
	}
}

func (c *Config) validate() error {
	if len(c.CodeTable) == 0 {
		return fmt.Errorf("code_table must not be empty")
	}
	if len(c.OrderIDFields) == 0 {
		return fmt.Errorf("order_id_fields must not be empty")
	}
	for _, p := range append(append([]string{}, c.ReversalPrefixes...), c.PaymentPrefixes...) {
		if len(p) != 3 {
			return fmt.Errorf("prefix %q must be exactly 3 characters", p)
		}
	}
	for code, action := range c.SubscriptionActions {
		switch action {
		case "signup", "modify", "cancel", "eot":
		default:
			return fmt.Errorf("subscription action %q has unknown kind %q", code, action)
		}
	}
	return nil
}

// Classify looks up a transaction event code in the table. Unknown codes
// return TypeUnclassified.
func (c *Config) Classify(code string) models.TransactionType {
	return c.CodeTable[code]
}

// IsReversalPrefix reports whether the code's first three characters belong
// to the refund/chargeback prefix group.
func (c *Config) IsReversalPrefix(code string) bool {
	return hasPrefixIn(code, c.ReversalPrefixes)
}

// IsPaymentPrefix reports whether the code's first three characters belong
// to the payment-like prefix group.
func (c *Config) IsPaymentPrefix(code string) bool {
	return hasPrefixIn(code, c.PaymentPrefixes)
}

func hasPrefixIn(code string, prefixes []string) bool {
	if len(code) < 3 {
		return false
	}
	head := code[:3]
	for _, p := range prefixes {
		if head == p {
			return true
		}
	}
	return false
}
