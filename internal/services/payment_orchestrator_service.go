package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/careconnect/booking-backend/internal/config"
	"github.com/careconnect/booking-backend/internal/models"
	"github.com/careconnect/booking-backend/pkg/moneymath"
)

// PaymentAuditStore appends immutable payment audit entries
type PaymentAuditStore interface {
	Record(entry *models.PaymentAudit) error
}

// ClientInfo carries request metadata into the payment audit trail
type ClientInfo struct {
	IPAddress string
	UserAgent string
	Device    string
}

// PaymentOrchestratorService runs the two-phase deposit/balance flow.
// All amounts derive from the canonical total, never from a client-supplied
// figure, and at most one payment per booking is in flight at a time.
type PaymentOrchestratorService struct {
	store     BookingStore
	lifecycle *BookingService
	gateway   PaymentGateway
	audits    PaymentAuditStore
	pricing   config.PricingConfig
	currency  string
	logger    *logrus.Logger

	mu       sync.Mutex
	inFlight map[string]models.PaymentKind
}

// NewPaymentOrchestratorService creates a new payment orchestrator
func NewPaymentOrchestratorService(
	store BookingStore,
	lifecycle *BookingService,
	gateway PaymentGateway,
	audits PaymentAuditStore,
	pricingCfg config.PricingConfig,
	currency string,
	logger *logrus.Logger,
) *PaymentOrchestratorService {
	return &PaymentOrchestratorService{
		store:     store,
		lifecycle: lifecycle,
		gateway:   gateway,
		audits:    audits,
		pricing:   pricingCfg,
		currency:  currency,
		logger:    logger,
		inFlight:  make(map[string]models.PaymentKind),
	}
}

// ============================================================================
// QUOTE
// ============================================================================

// Quote computes the charge plan for a payment context without touching
// the gateway. The total is always reconstructed from the price breakdown.
func (s *PaymentOrchestratorService) Quote(pc models.PaymentContext) (models.PaymentSplit, error) {
	if err := pc.Validate(); err != nil {
		return models.PaymentSplit{}, err
	}
	return models.ComputePaymentSplit(pc.CanonicalTotal(), s.pricing.DepositRate), nil
}

// ============================================================================
// DEPOSIT (Phase 1)
// ============================================================================

// InitiateDeposit creates the deposit intent at the gateway and moves the
// booking to deposit_pending. Re-calling while an intent is already open
// returns the open intent instead of charging again.
func (s *PaymentOrchestratorService) InitiateDeposit(bookingID string, actorID uuid.UUID, client *ClientInfo) (*models.PaymentInitiation, error) {
	release, err := s.acquire(bookingID, models.PaymentKindDeposit)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, split, err := s.loadForPayment(bookingID, actorID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case models.StatusAddressConfirmed:
		// first initiation
	case models.StatusDepositPending:
		if booking.DepositIntentID != nil {
			return &models.PaymentInitiation{
				BookingID: booking.ID,
				Kind:      models.PaymentKindDeposit,
				IntentID:  *booking.DepositIntentID,
				Amount:    split.Deposit,
				Total:     split.Total,
			}, nil
		}
	default:
		return nil, fmt.Errorf("booking is not ready for a deposit (status: %s)", booking.Status)
	}

	intent, err := s.gateway.CreateIntent(
		moneymath.ToMinorUnits(split.Deposit),
		s.currency,
		map[string]string{"booking_id": booking.ID, "kind": string(models.PaymentKindDeposit)},
	)
	if err != nil {
		payErr := classifyInitError("failed to create deposit intent at the gateway", err)
		s.recordFailure(booking, models.PaymentKindDeposit, split.Deposit, split.Total, payErr, client)
		return nil, payErr
	}

	booking.DepositIntentID = &intent.ID
	if booking.Status == models.StatusAddressConfirmed {
		if err := s.lifecycle.Transition(booking, models.StatusDepositPending); err != nil {
			return nil, err
		}
	} else {
		booking.UpdatedAt = time.Now()
		if err := s.store.Update(booking); err != nil {
			return nil, fmt.Errorf("failed to store deposit intent: %w", err)
		}
	}

	s.recordAudit(booking, &intent.ID, models.PaymentEventInitiated, models.PaymentSourceBackend,
		models.PaymentKindDeposit, split.Deposit, split.Total, nil, client)

	return &models.PaymentInitiation{
		BookingID:    booking.ID,
		Kind:         models.PaymentKindDeposit,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       split.Deposit,
		Total:        split.Total,
	}, nil
}

// ConfirmDeposit verifies the deposit intent with the gateway and schedules
// the service. A verification failure leaves the booking in deposit_pending
// so the open intent can be re-checked without a second charge.
func (s *PaymentOrchestratorService) ConfirmDeposit(bookingID string, actorID uuid.UUID, client *ClientInfo) (*models.Booking, error) {
	release, err := s.acquire(bookingID, models.PaymentKindDeposit)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, split, err := s.loadForPayment(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusDepositPending {
		return nil, fmt.Errorf("no deposit awaiting confirmation (status: %s)", booking.Status)
	}
	if booking.DepositIntentID == nil {
		return nil, fmt.Errorf("no deposit intent on record for this booking")
	}

	captured, err := s.gateway.ConfirmIntent(*booking.DepositIntentID)
	if err != nil {
		payErr := classifyConfirmError("deposit confirmation could not be verified", err)
		s.recordConfirmFailure(booking, booking.DepositIntentID, models.PaymentKindDeposit, split.Deposit, split.Total, payErr, client)
		return nil, payErr
	}
	if !captured {
		return nil, models.NewInitError("deposit has not been completed at the gateway", nil)
	}

	if err := s.lifecycle.Transition(booking, models.StatusServiceScheduled); err != nil {
		return nil, err
	}

	s.recordAudit(booking, booking.DepositIntentID, models.PaymentEventConfirmed, models.PaymentSourceGateway,
		models.PaymentKindDeposit, split.Deposit, split.Total, nil, client)

	return booking, nil
}

// ============================================================================
// BALANCE (Phase 2)
// ============================================================================

// InitiateBalance creates the balance intent once the rating is recorded.
// A zero balance (fully covered by the deposit) skips the gateway and
// completes the booking immediately.
func (s *PaymentOrchestratorService) InitiateBalance(bookingID string, actorID uuid.UUID, client *ClientInfo) (*models.PaymentInitiation, error) {
	release, err := s.acquire(bookingID, models.PaymentKindBalance)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, split, err := s.loadForPayment(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusRatingGiven {
		return nil, fmt.Errorf("balance is only due after the rating is recorded (status: %s)", booking.Status)
	}

	if booking.BalanceIntentID != nil {
		return &models.PaymentInitiation{
			BookingID: booking.ID,
			Kind:      models.PaymentKindBalance,
			IntentID:  *booking.BalanceIntentID,
			Amount:    split.Balance,
			Total:     split.Total,
		}, nil
	}

	if split.Balance <= 0 {
		if err := s.lifecycle.Transition(booking, models.StatusCompleted); err != nil {
			return nil, err
		}
		s.recordAudit(booking, nil, models.PaymentEventConfirmed, models.PaymentSourceBackend,
			models.PaymentKindBalance, 0, split.Total, nil, client)
		return &models.PaymentInitiation{
			BookingID: booking.ID,
			Kind:      models.PaymentKindBalance,
			Amount:    0,
			Total:     split.Total,
		}, nil
	}

	intent, err := s.gateway.CreateIntent(
		moneymath.ToMinorUnits(split.Balance),
		s.currency,
		map[string]string{"booking_id": booking.ID, "kind": string(models.PaymentKindBalance)},
	)
	if err != nil {
		payErr := classifyInitError("failed to create balance intent at the gateway", err)
		s.recordFailure(booking, models.PaymentKindBalance, split.Balance, split.Total, payErr, client)
		return nil, payErr
	}

	booking.BalanceIntentID = &intent.ID
	booking.UpdatedAt = time.Now()
	if err := s.store.Update(booking); err != nil {
		return nil, fmt.Errorf("failed to store balance intent: %w", err)
	}

	s.recordAudit(booking, &intent.ID, models.PaymentEventInitiated, models.PaymentSourceBackend,
		models.PaymentKindBalance, split.Balance, split.Total, nil, client)

	return &models.PaymentInitiation{
		BookingID:    booking.ID,
		Kind:         models.PaymentKindBalance,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       split.Balance,
		Total:        split.Total,
	}, nil
}

// ConfirmBalance verifies the balance intent and completes the booking.
func (s *PaymentOrchestratorService) ConfirmBalance(bookingID string, actorID uuid.UUID, client *ClientInfo) (*models.Booking, error) {
	release, err := s.acquire(bookingID, models.PaymentKindBalance)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, split, err := s.loadForPayment(bookingID, actorID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusRatingGiven {
		return nil, fmt.Errorf("no balance awaiting confirmation (status: %s)", booking.Status)
	}
	if booking.BalanceIntentID == nil {
		return nil, fmt.Errorf("no balance intent on record for this booking")
	}

	captured, err := s.gateway.ConfirmIntent(*booking.BalanceIntentID)
	if err != nil {
		payErr := classifyConfirmError("balance confirmation could not be verified", err)
		s.recordConfirmFailure(booking, booking.BalanceIntentID, models.PaymentKindBalance, split.Balance, split.Total, payErr, client)
		return nil, payErr
	}
	if !captured {
		return nil, models.NewInitError("balance has not been completed at the gateway", nil)
	}

	if err := s.lifecycle.Transition(booking, models.StatusCompleted); err != nil {
		return nil, err
	}

	s.recordAudit(booking, booking.BalanceIntentID, models.PaymentEventConfirmed, models.PaymentSourceGateway,
		models.PaymentKindBalance, split.Balance, split.Total, nil, client)

	return booking, nil
}

// ============================================================================
// CANCELLATION
// ============================================================================

// ReportCancellation records that the user backed out of the payment sheet.
// The booking is left unchanged so the same payment can simply be offered
// again; the open intent is kept for reuse.
func (s *PaymentOrchestratorService) ReportCancellation(bookingID string, actorID uuid.UUID, kind models.PaymentKind, client *ClientInfo) error {
	booking, split, err := s.loadForPayment(bookingID, actorID)
	if err != nil {
		return err
	}

	amount := split.Deposit
	intentID := booking.DepositIntentID
	if kind == models.PaymentKindBalance {
		amount = split.Balance
		intentID = booking.BalanceIntentID
	}

	cancelled := models.NewUserCancelled(fmt.Sprintf("%s payment cancelled by user", kind))
	msg := cancelled.Message
	s.recordAudit(booking, intentID, models.PaymentEventCancelled, models.PaymentSourceUser,
		kind, amount, split.Total, &msg, client)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"kind":       kind,
	}).Info("Payment cancelled by user")

	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

// classifyInitError guarantees a pre-charge gateway failure reaches callers
// as a typed, retryable payment error. Gateways that already classify their
// failures pass through unchanged.
func classifyInitError(message string, err error) *models.PaymentError {
	var payErr *models.PaymentError
	if errors.As(err, &payErr) {
		return payErr
	}
	return models.NewInitError(message, err)
}

// classifyConfirmError does the same for post-charge verification failures,
// where the money may already have moved.
func classifyConfirmError(message string, err error) *models.PaymentError {
	var payErr *models.PaymentError
	if errors.As(err, &payErr) {
		return payErr
	}
	return models.NewConfirmError(message, err)
}

// acquire takes the per-booking payment slot. Concurrent attempts on the
// same booking fail fast instead of racing the gateway.
func (s *PaymentOrchestratorService) acquire(bookingID string, kind models.PaymentKind) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if open, busy := s.inFlight[bookingID]; busy {
		return nil, models.NewInitError(
			fmt.Sprintf("a %s payment is already in progress for this booking", open), nil)
	}
	s.inFlight[bookingID] = kind

	return func() {
		s.mu.Lock()
		delete(s.inFlight, bookingID)
		s.mu.Unlock()
	}, nil
}

// loadForPayment loads the booking, checks the payer and derives the charge
// plan from the canonical total.
func (s *PaymentOrchestratorService) loadForPayment(bookingID string, actorID uuid.UUID) (*models.Booking, models.PaymentSplit, error) {
	booking, err := s.store.GetByID(bookingID)
	if err != nil {
		return nil, models.PaymentSplit{}, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, models.PaymentSplit{}, fmt.Errorf("booking not found")
	}
	if actorID != booking.SeekerID {
		return nil, models.PaymentSplit{}, fmt.Errorf("unauthorized: only the seeker pays for this booking")
	}
	if booking.Pricing == nil {
		return nil, models.PaymentSplit{}, fmt.Errorf("booking has no price breakdown")
	}

	pc := models.NewPaymentContext(booking.ID, booking.Pricing)
	if err := pc.Validate(); err != nil {
		return nil, models.PaymentSplit{}, err
	}

	return booking, models.ComputePaymentSplit(pc.CanonicalTotal(), s.pricing.DepositRate), nil
}

// recordFailure stores the retry context on the booking and audits the
// failed initiation. The status is deliberately left where it was.
func (s *PaymentOrchestratorService) recordFailure(booking *models.Booking, kind models.PaymentKind, amount, total float64, cause error, client *ClientInfo) {
	msg := cause.Error()
	booking.LastError = &msg
	booking.UpdatedAt = time.Now()
	if err := s.store.Update(booking); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to store payment error")
	}

	s.recordAudit(booking, nil, models.PaymentEventFailed, models.PaymentSourceBackend,
		kind, amount, total, &msg, client)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"kind":       kind,
		"amount":     amount,
	}).WithError(cause).Error("Payment initiation failed")
}

// recordConfirmFailure audits a post-charge verification failure. The intent
// stays on the booking: the money may already have moved, so the next step
// is re-verification, never a new charge.
func (s *PaymentOrchestratorService) recordConfirmFailure(booking *models.Booking, intentID *string, kind models.PaymentKind, amount, total float64, cause error, client *ClientInfo) {
	msg := cause.Error()
	booking.LastError = &msg
	booking.UpdatedAt = time.Now()
	if err := s.store.Update(booking); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to store payment error")
	}

	s.recordAudit(booking, intentID, models.PaymentEventConfirmPending, models.PaymentSourceBackend,
		kind, amount, total, &msg, client)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"kind":       kind,
		"intent_id":  intentID,
	}).WithError(cause).Error("Payment confirmation failed, charge may exist at gateway")
}

func (s *PaymentOrchestratorService) recordAudit(
	booking *models.Booking,
	intentID *string,
	eventType models.PaymentEventType,
	source models.PaymentEventSource,
	kind models.PaymentKind,
	amount, total float64,
	errorMessage *string,
	client *ClientInfo,
) {
	entry := &models.PaymentAudit{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		IntentID:     intentID,
		EventType:    eventType,
		EventSource:  source,
		Kind:         kind,
		Amount:       &amount,
		Total:        &total,
		Currency:     &s.currency,
		ErrorMessage: errorMessage,
		CreatedAt:    time.Now(),
	}
	if client != nil {
		if client.IPAddress != "" {
			entry.IPAddress = &client.IPAddress
		}
		if client.UserAgent != "" {
			entry.UserAgent = &client.UserAgent
		}
		if client.Device != "" {
			entry.Device = &client.Device
		}
	}

	if err := s.audits.Record(entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"event_type": eventType,
		}).Warn("Failed to record payment audit entry")
	}
}
