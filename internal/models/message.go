package models

// Family identifies the report family a file belongs to.
type Family string

const (
	FamilyTransactionDetail Family = "TRR"
	FamilySettlement        Family = "STL"
	FamilySubscription      Family = "SAR"
)

// TransactionType is the classification of a report row derived from its
// transaction event code. Unknown codes classify as TypeUnclassified, never
// silently coerced to anything else.
type TransactionType string

const (
	TypeUnclassified        TransactionType = ""
	TypeRecurringPayment    TransactionType = "recurring_payment"
	TypePreapprovedPayment  TransactionType = "preapproved_payment"
	TypeSubscriptionPayment TransactionType = "subscription_payment"
	TypeRiskyPayment        TransactionType = "risky_payment"
	TypeCurrencyConversion  TransactionType = "currency_conversion"
	TypeFee                 TransactionType = "fee"
	TypeChargebackFee       TransactionType = "chargeback_fee"
	TypeFeeReversal         TransactionType = "fee_reversal"
	TypeReversal            TransactionType = "reversal"
	TypeWithdrawal          TransactionType = "withdrawal"
	TypeRefund              TransactionType = "refund"
	TypeChargeback          TransactionType = "chargeback"
	TypeChargebackReversed  TransactionType = "chargeback_reversed"
)

// Message is one normalized transaction event emitted by a parser.
//
// Amounts are in major currency units. Original amounts are in the currency
// the transaction was initiated in; settled amounts are in the currency the
// money actually cleared in, which differs only when a currency-conversion
// pair exists for the row's reference id. The invariant
// net == total + fee holds in both currencies (fee carries the sign of its
// debit/credit marker).
type Message struct {
	Gateway          string `json:"gateway"`
	AuditFileGateway string `json:"audit_file_gateway,omitempty"`
	GatewayTxnID     string `json:"gateway_txn_id,omitempty"`

	// Type is set for reversal-family and payout messages; TxnType tags
	// recurring/subscription lifecycle messages (subscr_payment,
	// subscr_signup, subscr_cancel, subscr_eot).
	Type    string `json:"type,omitempty"`
	TxnType string `json:"txn_type,omitempty"`

	Date                     int64  `json:"date,omitempty"`
	SettledDate              int64  `json:"settled_date,omitempty"`
	SettlementBatchReference string `json:"settlement_batch_reference,omitempty"`

	Gross             float64 `json:"gross,omitempty"`
	Currency          string  `json:"currency,omitempty"`
	Fee               float64 `json:"fee,omitempty"`
	OriginalCurrency  string  `json:"original_currency,omitempty"`
	OriginalTotal     float64 `json:"original_total_amount,omitempty"`
	OriginalFee       float64 `json:"original_fee_amount,omitempty"`
	OriginalNet       float64 `json:"original_net_amount,omitempty"`
	SettledCurrency   string  `json:"settled_currency,omitempty"`
	SettledTotal      float64 `json:"settled_total_amount,omitempty"`
	SettledFee        float64 `json:"settled_fee_amount,omitempty"`
	SettledNet        float64 `json:"settled_net_amount,omitempty"`
	ExchangeRate      float64 `json:"exchange_rate,omitempty"`
	GatewayStatus     string  `json:"gateway_status,omitempty"`
	PaymentMethod     string  `json:"payment_method,omitempty"`
	PaymentSubmethod  string  `json:"payment_submethod,omitempty"`
	OrderID           string  `json:"order_id,omitempty"`
	InvoiceID         string  `json:"invoice_id,omitempty"`
	ContributionTrack *int64  `json:"contribution_tracking_id,omitempty"`

	// Donor / payer details.
	Email                string `json:"email,omitempty"`
	FirstName            string `json:"first_name,omitempty"`
	LastName             string `json:"last_name,omitempty"`
	StreetAddress        string `json:"street_address,omitempty"`
	SupplementalAddress1 string `json:"supplemental_address_1,omitempty"`
	City                 string `json:"city,omitempty"`
	StateProvince        string `json:"state_province,omitempty"`
	PostalCode           string `json:"postal_code,omitempty"`
	Country              string `json:"country,omitempty"`

	// Reversal-family fields.
	GatewayRefundID string `json:"gateway_refund_id,omitempty"`
	GatewayParentID string `json:"gateway_parent_id,omitempty"`
	GrossCurrency   string `json:"gross_currency,omitempty"`

	// Recurring / subscription fields.
	SubscrID          string `json:"subscr_id,omitempty"`
	FrequencyUnit     string `json:"frequency_unit,omitempty"`
	FrequencyInterval string `json:"frequency_interval,omitempty"`
	StartDate         int64  `json:"start_date,omitempty"`
	CreateDate        int64  `json:"create_date,omitempty"`
	CancelDate        int64  `json:"cancel_date,omitempty"`

	// Orchestrator attribution, set when the correlation key identifies a
	// transaction routed through a payment orchestrator rather than placed
	// directly with the processor.
	BackendProcessor        string `json:"backend_processor,omitempty"`
	BackendProcessorTxnID   string `json:"backend_processor_txn_id,omitempty"`
	OrchestratorReconcileID string `json:"payment_orchestrator_reconciliation_id,omitempty"`
}

// QueueTopic maps a message to the downstream delivery topic it belongs on.
func (m *Message) QueueTopic() string {
	switch {
	case m.Type == "payout":
		return "payout"
	case m.Type == string(TypeRefund) || m.Type == string(TypeReversal):
		return "refund"
	case m.Type == string(TypeChargeback) || m.Type == string(TypeChargebackReversed):
		return "chargeback"
	case m.TxnType != "":
		return "recurring"
	default:
		return "donation"
	}
}
