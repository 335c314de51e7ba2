// Package gateway adapts the Stripe API to port.PaymentGateway.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	// MinAmount is the smallest chargeable amount in major units; smaller intents are raised to it.
	MinAmount decimal.Decimal
	ReturnURL string
	Timeout   time.Duration
	// BaseURL overrides the API endpoint, empty means api.stripe.com.
	BaseURL string
}

type Stripe struct {
	api    *client.API
	cfg    Config
	logger *zap.Logger
}

func NewStripe(cfg Config, logger *zap.Logger) *Stripe {
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     logger.Sugar(),
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	backends := &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}

	return &Stripe{
		api:    client.New(cfg.SecretKey, backends),
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Stripe) CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.IntentHandle, error) {
	amount := s.clamp(req.Amount)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.MinorUnits()),
		Currency: stripe.String(currencyCode(amount.Currency)),
	}
	params.Context = ctx

	switch req.Method {
	case domain.PaymentMethodAutomatic, "":
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	default:
		params.PaymentMethodTypes = stripe.StringSlice([]string{string(req.Method)})
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return domain.IntentHandle{}, fmt.Errorf("PaymentIntents.New: %w", mapError(err))
	}

	if amount.Amount.GreaterThan(req.Amount.Amount) {
		s.logger.Info("intent amount raised to minimum",
			zap.String("intent_id", pi.ID),
			zap.Stringer("requested", req.Amount),
			zap.Stringer("charged", amount))
	}

	return domain.IntentHandle{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amount,
		Status:       string(pi.Status),
	}, nil
}

func (s *Stripe) clamp(amount domain.Money) domain.Money {
	if amount.Amount.LessThan(s.cfg.MinAmount) {
		return domain.NewMoney(s.cfg.MinAmount, amount.Currency)
	}
	return amount
}

// ConfirmIntent reports declines and required actions as outcomes. Errors are either
// a *domain.StateConflictError or wrap domain.ErrGateway / domain.ErrNotFound.
func (s *Stripe) ConfirmIntent(ctx context.Context, req domain.ConfirmRequest) (domain.PaymentOutcome, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	if req.MethodID != "" {
		params.PaymentMethod = stripe.String(req.MethodID)
	}
	if returnURL := lo.CoalesceOrEmpty(req.ReturnURL, s.cfg.ReturnURL); returnURL != "" {
		params.ReturnURL = stripe.String(returnURL)
	}

	pi, err := s.api.PaymentIntents.Confirm(req.IntentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return domain.Declined{IntentID: req.IntentID, Reason: declineReason(stripeErr)}, nil
		}
		return nil, fmt.Errorf("PaymentIntents.Confirm: %w", mapError(err))
	}

	return outcomeOf(pi)
}

func outcomeOf(pi *stripe.PaymentIntent) (domain.PaymentOutcome, error) {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		intent, err := toIntent(pi)
		if err != nil {
			return nil, err
		}
		return domain.Succeeded{IntentID: pi.ID, Amount: intent.Amount, Metadata: intent.Metadata}, nil
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusProcessing:
		return domain.RequiresAction{IntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
	default:
		reason := string(pi.Status)
		if pi.LastPaymentError != nil {
			reason = declineReason(pi.LastPaymentError)
		}
		return domain.Declined{IntentID: pi.ID, Reason: reason}, nil
	}
}

func declineReason(e *stripe.Error) string {
	if e.DeclineCode != "" {
		return string(e.DeclineCode)
	}
	return lo.CoalesceOrEmpty(e.Msg, string(e.Code))
}

func (s *Stripe) RetrieveIntent(ctx context.Context, intentID string) (domain.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("PaymentIntents.Get: %w", mapError(err))
	}

	return toIntent(pi)
}

func (s *Stripe) Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.IntentID),
	}
	params.Context = ctx
	if req.Amount != nil {
		params.Amount = stripe.Int64(req.Amount.MinorUnits())
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	r, err := s.api.Refunds.New(params)
	if err != nil {
		return domain.RefundResult{}, fmt.Errorf("Refunds.New: %w", mapError(err))
	}

	cur, err := parseCurrency(r.Currency)
	if err != nil {
		return domain.RefundResult{}, err
	}

	return domain.RefundResult{
		RefundID: r.ID,
		Amount:   domain.FromMinorUnits(r.Amount, cur),
		Status:   string(r.Status),
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header before looking at the payload.
func (s *Stripe) VerifyWebhook(payload []byte, signature string) (domain.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: %w", domain.ErrSignature, err)
	}

	result := domain.WebhookEvent{
		ID:   event.ID,
		Type: domain.WebhookEventType(event.Type),
	}

	if !strings.HasPrefix(string(event.Type), "payment_intent.") || event.Data == nil {
		return result, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("event %s payload: %w", event.ID, domain.ErrValidation)
	}

	result.Intent, err = toIntent(&pi)
	if err != nil {
		return domain.WebhookEvent{}, err
	}

	return result, nil
}

func toIntent(pi *stripe.PaymentIntent) (domain.Intent, error) {
	cur, err := parseCurrency(pi.Currency)
	if err != nil {
		return domain.Intent{}, err
	}

	method := domain.PaymentMethodAutomatic
	if pi.AutomaticPaymentMethods == nil && len(pi.PaymentMethodTypes) == 1 {
		method = domain.PaymentMethod(pi.PaymentMethodTypes[0])
	}

	return domain.Intent{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   domain.FromMinorUnits(pi.Amount, cur),
		Method:   method,
		Metadata: pi.Metadata,
	}, nil
}

// mapError classifies a Stripe client error.
func mapError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %w", domain.ErrGateway, err)
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState:
		conflict := &domain.StateConflictError{Message: stripeErr.Msg}
		if stripeErr.PaymentIntent != nil {
			conflict.IntentID = stripeErr.PaymentIntent.ID
			conflict.Status = string(stripeErr.PaymentIntent.Status)
		}
		return conflict
	case stripeErr.Code == stripe.ErrorCodeResourceMissing:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrGateway, err)
	}
}

func currencyCode(cur currency.Unit) string {
	return strings.ToLower(cur.String())
}

func parseCurrency(c stripe.Currency) (currency.Unit, error) {
	cur, err := currency.ParseISO(strings.ToUpper(string(c)))
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s]: %w", c, domain.ErrGateway)
	}
	return cur, nil
}
