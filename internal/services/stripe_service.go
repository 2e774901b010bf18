package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/config"
	"github.com/careconnect/booking-backend/internal/models"
)

// PaymentGateway abstracts the card processor so the orchestrator can be
// tested against a fake.
type PaymentGateway interface {
	// CreateIntent registers a charge for the given amount in minor units
	// and returns the gateway's intent handle.
	CreateIntent(amountMinor int64, currency string, metadata map[string]string) (*models.GatewayIntent, error)
	// ConfirmIntent reports whether the intent has actually been captured.
	ConfirmIntent(intentID string) (bool, error)
}

// StripeService talks to the Stripe Payment Intents API.
type StripeService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// stripeIntentResponse is the subset of Stripe's PaymentIntent object we use
type stripeIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(cfg *config.PaymentConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// CreateIntent creates a PaymentIntent for the given amount
func (s *StripeService) CreateIntent(amountMinor int64, currency string, metadata map[string]string) (*models.GatewayIntent, error) {
	if !s.IsConfigured() {
		return nil, models.NewInitError("payment gateway not configured: missing secret key", nil)
	}
	if amountMinor <= 0 {
		return nil, models.NewInitError(fmt.Sprintf("invalid charge amount: %d", amountMinor), nil)
	}
	if s.config.MaxAmountMinor > 0 && amountMinor > s.config.MaxAmountMinor {
		return nil, models.NewInitError(
			fmt.Sprintf("charge amount %d exceeds gateway limit %d", amountMinor, s.config.MaxAmountMinor), nil)
	}
	if currency == "" {
		currency = s.config.Currency
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	s.logger.WithFields(logrus.Fields{
		"amount_minor": amountMinor,
		"currency":     currency,
	}).Info("Creating payment intent")

	resp, err := s.postForm("/v1/payment_intents", form)
	if err != nil {
		return nil, models.NewInitError("failed to reach payment gateway", err)
	}

	if resp.Error != nil {
		s.logger.WithFields(logrus.Fields{
			"error_type": resp.Error.Type,
			"error_code": resp.Error.Code,
		}).Error("Payment intent creation rejected")
		return nil, models.NewInitError(resp.Error.Message, nil)
	}
	if resp.ID == "" || resp.ClientSecret == "" {
		return nil, models.NewInitError("payment gateway returned incomplete intent", nil)
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id": resp.ID,
		"status":    resp.Status,
	}).Info("Payment intent created")

	return &models.GatewayIntent{
		ID:           resp.ID,
		ClientSecret: resp.ClientSecret,
		Status:       resp.Status,
	}, nil
}

// ConfirmIntent retrieves the intent and reports whether it succeeded.
// A transport failure here means the charge may have gone through, so the
// error is a confirm error rather than a retryable init error.
func (s *StripeService) ConfirmIntent(intentID string) (bool, error) {
	if intentID == "" {
		return false, models.NewConfirmError("missing intent id", nil)
	}

	req, err := http.NewRequest(http.MethodGet, s.config.APIBaseURL+"/v1/payment_intents/"+intentID, nil)
	if err != nil {
		return false, models.NewConfirmError("failed to build confirmation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	httpResp, err := s.client.Do(req)
	if err != nil {
		return false, models.NewConfirmError("failed to verify payment with gateway", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return false, models.NewConfirmError("failed to read gateway response", err)
	}

	var resp stripeIntentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, models.NewConfirmError("failed to parse gateway response", err)
	}
	if resp.Error != nil {
		return false, models.NewConfirmError(resp.Error.Message, nil)
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id": intentID,
		"status":    resp.Status,
	}).Info("Payment intent status checked")

	return resp.Status == "succeeded", nil
}

// postForm sends a form-encoded POST with the secret key and decodes the response
func (s *StripeService) postForm(path string, form url.Values) (*stripeIntentResponse, error) {
	req, err := http.NewRequest(http.MethodPost, s.config.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp stripeIntentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		s.logger.WithFields(logrus.Fields{
			"status_code": httpResp.StatusCode,
			"body":        string(body),
		}).Error("Failed to parse gateway response")
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error == nil && httpResp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway returned status %d: %s", httpResp.StatusCode, string(body))
	}

	return &resp, nil
}

// IsConfigured returns true if the gateway credentials are present
func (s *StripeService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// Currency returns the configured charge currency
func (s *StripeService) Currency() string {
	return s.config.Currency
}
