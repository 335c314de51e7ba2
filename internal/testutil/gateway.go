package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
)

const ValidSignature = "valid-signature"

// FakeGateway is an in-memory port.PaymentGateway. Intents succeed on confirm unless
// ConfirmFunc says otherwise.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]domain.Intent
	calls   map[string]int

	CreateErr   error
	RetrieveErr error
	RefundErr   error
	// ConfirmFunc overrides the confirm result for an intent.
	ConfirmFunc func(intent domain.Intent) (domain.PaymentOutcome, error)
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		intents: map[string]domain.Intent{},
		calls:   map[string]int{},
	}
}

func (g *FakeGateway) CreateIntent(_ context.Context, req domain.IntentRequest) (domain.IntentHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["CreateIntent"]++

	if g.CreateErr != nil {
		return domain.IntentHandle{}, g.CreateErr
	}

	id := "pi_" + uuid.NewString()
	g.intents[id] = domain.Intent{
		ID:       id,
		Status:   domain.IntentStatusRequiresPaymentMethod,
		Amount:   req.Amount,
		Method:   req.Method,
		Metadata: req.Metadata,
	}

	return domain.IntentHandle{
		IntentID:     id,
		ClientSecret: id + "_secret",
		Amount:       req.Amount,
		Status:       domain.IntentStatusRequiresPaymentMethod,
	}, nil
}

func (g *FakeGateway) ConfirmIntent(_ context.Context, req domain.ConfirmRequest) (domain.PaymentOutcome, error) {
	g.mu.Lock()
	g.calls["ConfirmIntent"]++
	intent, ok := g.intents[req.IntentID]
	hook := g.ConfirmFunc
	g.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("intent %s: %w", req.IntentID, domain.ErrNotFound)
	}

	if hook != nil {
		outcome, err := hook(intent)
		if _, ok := outcome.(domain.Succeeded); ok && err == nil {
			g.SetStatus(intent.ID, domain.IntentStatusSucceeded)
		}
		return outcome, err
	}

	if intent.Status == domain.IntentStatusSucceeded {
		return nil, &domain.StateConflictError{IntentID: intent.ID, Status: intent.Status, Message: "already succeeded"}
	}

	g.SetStatus(intent.ID, domain.IntentStatusSucceeded)

	return domain.Succeeded{IntentID: intent.ID, Amount: intent.Amount, Metadata: intent.Metadata}, nil
}

func (g *FakeGateway) RetrieveIntent(_ context.Context, intentID string) (domain.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["RetrieveIntent"]++

	if g.RetrieveErr != nil {
		return domain.Intent{}, g.RetrieveErr
	}

	intent, ok := g.intents[intentID]
	if !ok {
		return domain.Intent{}, fmt.Errorf("intent %s: %w", intentID, domain.ErrNotFound)
	}
	return intent, nil
}

func (g *FakeGateway) Refund(_ context.Context, req domain.RefundRequest) (domain.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["Refund"]++

	if g.RefundErr != nil {
		return domain.RefundResult{}, g.RefundErr
	}

	intent, ok := g.intents[req.IntentID]
	if !ok {
		return domain.RefundResult{}, fmt.Errorf("intent %s: %w", req.IntentID, domain.ErrNotFound)
	}

	amount := intent.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}

	return domain.RefundResult{
		RefundID: "re_" + uuid.NewString(),
		Amount:   amount,
		Status:   "succeeded",
	}, nil
}

// WebhookPayload is the JSON the fake expects in VerifyWebhook.
type WebhookPayload struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	IntentID string            `json:"intentId"`
	Metadata map[string]string `json:"metadata"`
}

func (g *FakeGateway) VerifyWebhook(payload []byte, signature string) (domain.WebhookEvent, error) {
	g.mu.Lock()
	g.calls["VerifyWebhook"]++
	g.mu.Unlock()

	if signature != ValidSignature {
		return domain.WebhookEvent{}, domain.ErrSignature
	}

	var p WebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return domain.WebhookEvent{
		ID:   p.ID,
		Type: domain.WebhookEventType(p.Type),
		Intent: domain.Intent{
			ID:       p.IntentID,
			Metadata: p.Metadata,
		},
	}, nil
}

func (g *FakeGateway) SetStatus(intentID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent := g.intents[intentID]
	intent.Status = status
	g.intents[intentID] = intent
}

func (g *FakeGateway) Intent(intentID string) domain.Intent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intents[intentID]
}

func (g *FakeGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// MustWebhook builds a payload accepted by VerifyWebhook.
func MustWebhook(eventType domain.WebhookEventType, intentID string, metadata map[string]string) []byte {
	payload, err := json.Marshal(WebhookPayload{
		ID:       "evt_" + uuid.NewString(),
		Type:     string(eventType),
		IntentID: intentID,
		Metadata: metadata,
	})
	if err != nil {
		panic(err)
	}
	return payload
}
