package domain

import (
	"fmt"
)

type PaymentMethod string

const (
	// PaymentMethodAutomatic lets the processor offer every method enabled on the account.
	PaymentMethodAutomatic PaymentMethod = "automatic"
	PaymentMethodUPI       PaymentMethod = "upi"
	PaymentMethodCard      PaymentMethod = "card"
)

func ToPaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case "":
		return PaymentMethodAutomatic, nil
	case PaymentMethodAutomatic, PaymentMethodUPI, PaymentMethodCard:
		return m, nil
	default:
		return "", fmt.Errorf("payment method[%s]: %w", s, ErrValidation)
	}
}

// Intent statuses as reported by the processor.
const (
	IntentStatusSucceeded             = "succeeded"
	IntentStatusRequiresAction        = "requires_action"
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusRequiresConfirmation  = "requires_confirmation"
	IntentStatusProcessing            = "processing"
	IntentStatusCanceled              = "canceled"
)

const (
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

type IntentRequest struct {
	Amount   Money
	Method   PaymentMethod
	Metadata map[string]string
}

// IntentHandle is what the client needs to complete the payment.
type IntentHandle struct {
	IntentID     string
	ClientSecret string
	Amount       Money
	Status       string
}

type Intent struct {
	ID       string
	Status   string
	Amount   Money
	Method   PaymentMethod
	Metadata map[string]string
}

type ConfirmRequest struct {
	IntentID  string
	MethodID  string
	ReturnURL string
}

type RefundRequest struct {
	IntentID string
	// Amount is nil for a full refund.
	Amount   *Money
	Metadata map[string]string
}

type RefundResult struct {
	RefundID string
	Amount   Money
	Status   string
}

// PaymentOutcome is one of Succeeded, RequiresAction, Declined or GatewayUnavailable.
type PaymentOutcome interface {
	isPaymentOutcome()
}

type Succeeded struct {
	IntentID string
	Amount   Money
	Metadata map[string]string
}

type RequiresAction struct {
	IntentID     string
	ClientSecret string
}

type Declined struct {
	IntentID string
	Reason   string
}

type GatewayUnavailable struct {
	Reason string
}

func (Succeeded) isPaymentOutcome()          {}
func (RequiresAction) isPaymentOutcome()     {}
func (Declined) isPaymentOutcome()           {}
func (GatewayUnavailable) isPaymentOutcome() {}

// StateConflictError is returned when the processor refuses an operation because the intent
// is already in another state. Status is empty when the processor did not report it.
type StateConflictError struct {
	IntentID string
	Status   string
	Message  string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("payment intent %s in unexpected state %q: %s", e.IntentID, e.Status, e.Message)
}

type WebhookEventType string

const (
	EventPaymentSucceeded WebhookEventType = "payment_intent.succeeded"
	EventPaymentFailed    WebhookEventType = "payment_intent.payment_failed"
)

// WebhookEvent is a verified processor event reduced to the intent it concerns.
type WebhookEvent struct {
	ID     string
	Type   WebhookEventType
	Intent Intent
}
