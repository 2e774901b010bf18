package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/booking-backend/internal/config"
	"github.com/careconnect/booking-backend/internal/middleware"
	"github.com/careconnect/booking-backend/internal/models"
	"github.com/careconnect/booking-backend/internal/services"
	"github.com/careconnect/booking-backend/pkg/jwt"
)

// ============================================================================
// IN-MEMORY FAKES
// ============================================================================

type memBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: make(map[string]*models.Booking)}
}

func (m *memBookingStore) Create(booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bookings[booking.ID]; exists {
		return fmt.Errorf("duplicate booking id %s", booking.ID)
	}
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *memBookingStore) GetByID(id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (m *memBookingStore) Update(booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; !ok {
		return fmt.Errorf("booking %s not found", booking.ID)
	}
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

type memGateway struct {
	mu          sync.Mutex
	createCalls int
	createErr   error
	captured    bool
}

func (m *memGateway) CreateIntent(amountMinor int64, currency string, metadata map[string]string) (*models.GatewayIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.GatewayIntent{
		ID:           fmt.Sprintf("pi_test_%d", m.createCalls),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", m.createCalls),
		Status:       "requires_payment_method",
	}, nil
}

func (m *memGateway) ConfirmIntent(intentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captured, nil
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []*models.PaymentAudit
}

func (m *memAuditStore) Record(entry *models.PaymentAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditStore) ListByBookingID(bookingID string) ([]*models.PaymentAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PaymentAudit
	for _, e := range m.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memReviewStore struct {
	mu      sync.Mutex
	reviews []*models.Review
	stats   map[uuid.UUID]*models.ProviderStats
}

func newMemReviewStore() *memReviewStore {
	return &memReviewStore{stats: make(map[uuid.UUID]*models.ProviderStats)}
}

func (m *memReviewStore) Create(review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *memReviewStore) GetByBookingID(bookingID string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memReviewStore) ListByProvider(providerID uuid.UUID) ([]*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Review
	for _, r := range m.reviews {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviewStore) GetStats(providerID uuid.UUID) (*models.ProviderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[providerID], nil
}

func (m *memReviewStore) UpsertStats(stats *models.ProviderStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[stats.ProviderID] = stats
	return nil
}

// ============================================================================
// FIXTURE
// ============================================================================

var (
	seekerID   = uuid.MustParse("3f1c0a52-8d8b-4f0e-9a51-111111111111")
	providerID = uuid.MustParse("9b7e55de-41aa-47c9-8a36-222222222222")
)

type apiFixture struct {
	router      *gin.Engine
	jwt         *jwt.Service
	store       *memBookingStore
	gateway     *memGateway
	audits      *memAuditStore
	reviews     *memReviewStore
	seekerTok   string
	providerTok string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	pricingCfg := config.PricingConfig{
		HourlyRate:     22,
		MinimumHours:   2,
		SpecialOffers:  map[int]float64{3: 60},
		DepositRate:    0.20,
		CommissionRate: 0.40,
	}

	store := newMemBookingStore()
	gateway := &memGateway{captured: true}
	audits := &memAuditStore{}
	reviewStore := newMemReviewStore()

	pricing := services.NewPricingService(pricingCfg, logger)
	bookingSvc := services.NewBookingService(store, pricing, logger)
	orchestrator := services.NewPaymentOrchestratorService(store, bookingSvc, gateway, audits, pricingCfg, "eur", logger)
	reviewSvc := services.NewReviewService(reviewStore, store, bookingSvc, logger)

	jwtService := jwt.NewService("test-secret", time.Hour)

	bookingHandler := NewBookingHandler(bookingSvc, logger)
	paymentHandler := NewPaymentHandler(orchestrator, audits, logger)
	reviewHandler := NewReviewHandler(reviewSvc, logger)
	pricingHandler := NewPricingHandler(pricing, logger)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtService))
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:booking_id", bookingHandler.GetBooking)
			bookings.PUT("/:booking_id/schedule", bookingHandler.Reschedule)
			bookings.POST("/:booking_id/address", bookingHandler.ConfirmAddress)
			bookings.POST("/:booking_id/performed", bookingHandler.MarkPerformed)
			bookings.POST("/:booking_id/payments/deposit", paymentHandler.InitiateDeposit)
			bookings.POST("/:booking_id/payments/deposit/confirm", paymentHandler.ConfirmDeposit)
			bookings.POST("/:booking_id/payments/balance", paymentHandler.InitiateBalance)
			bookings.POST("/:booking_id/payments/balance/confirm", paymentHandler.ConfirmBalance)
			bookings.POST("/:booking_id/payments/cancel", paymentHandler.ReportCancellation)
			bookings.GET("/:booking_id/payments/audit", paymentHandler.GetAuditTrail)
			bookings.POST("/:booking_id/rating", reviewHandler.SubmitRating)
			bookings.POST("/:booking_id/review", reviewHandler.SubmitReview)
		}
		v1.POST("/payments/quote", paymentHandler.Quote)
		v1.POST("/pricing/quote", pricingHandler.Quote)
		providers := v1.Group("/providers")
		{
			providers.GET("/:provider_id/reviews", reviewHandler.GetProviderReviews)
			providers.GET("/:provider_id/stats", reviewHandler.GetProviderStats)
		}
	}

	seekerTok, err := jwtService.GenerateToken(seekerID, "Marie", []string{jwt.RoleSeeker})
	require.NoError(t, err)
	providerTok, err := jwtService.GenerateToken(providerID, "Sophie", []string{jwt.RoleProvider})
	require.NoError(t, err)

	return &apiFixture{
		router:      router,
		jwt:         jwtService,
		store:       store,
		gateway:     gateway,
		audits:      audits,
		reviews:     reviewStore,
		seekerTok:   seekerTok,
		providerTok: providerTok,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func serviceRequestBody() map[string]interface{} {
	return map[string]interface{}{
		"sector":       "childcare",
		"service_date": "2026-09-14",
		"start_time":   "14:00",
		"end_time":     "17:00",
		"provider_id":  providerID.String(),
	}
}

// createBooking drives the API and returns the booking ID
func (f *apiFixture) createBooking(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/bookings", f.seekerTok, serviceRequestBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Booking.ID
}

// advanceToAddressConfirmed walks a fresh booking to address_confirmed
func (f *apiFixture) advanceToAddressConfirmed(t *testing.T) string {
	t.Helper()
	id := f.createBooking(t)
	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/address", f.seekerTok,
		map[string]string{"address": "12 Rue des Lilas, Lyon"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id
}

// ============================================================================
// BOOKING ENDPOINTS
// ============================================================================

func TestCreateBooking(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings", f.seekerTok, serviceRequestBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Booking models.Booking `json:"booking"`
		Created bool           `json:"created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.Equal(t, models.ConversationID(seekerID, providerID), resp.Booking.ID)
	assert.Equal(t, models.StatusDiscussing, resp.Booking.Status)
	require.NotNil(t, resp.Booking.Pricing)
	assert.Equal(t, 60.0, resp.Booking.Pricing.FinalPrice)

	// Second call returns the existing record with 200
	w = f.do(t, http.MethodPost, "/api/v1/bookings", f.seekerTok, serviceRequestBody())
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
}

func TestCreateBooking_Unauthenticated(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/bookings", "", serviceRequestBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBooking_WindowBelowMinimum(t *testing.T) {
	f := newAPIFixture(t)

	body := serviceRequestBody()
	body["start_time"] = "10:00"
	body["end_time"] = "11:00"

	w := f.do(t, http.MethodPost, "/api/v1/bookings", f.seekerTok, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(models.CodeBelowMinimum))
}

func TestGetBooking_OutsiderForbidden(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createBooking(t)

	outsiderTok, err := f.jwt.GenerateToken(uuid.New(), "Eve", []string{jwt.RoleSeeker})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/bookings/"+id, outsiderTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetBooking_NotFound(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/bookings/nope", f.seekerTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReschedule(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createBooking(t)

	w := f.do(t, http.MethodPut, "/api/v1/bookings/"+id+"/schedule", f.seekerTok,
		map[string]string{"start_time": "09:00", "end_time": "13:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Booking.Pricing)
	assert.Equal(t, 88.0, resp.Booking.Pricing.FinalPrice)
}

func TestConfirmAddress_Immutable(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/address", f.seekerTok,
		map[string]string{"address": "somewhere else"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkPerformed_SeekerRejected(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createBooking(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/performed", f.seekerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "provider")
}

// ============================================================================
// PAYMENT ENDPOINTS
// ============================================================================

func TestDepositFlow(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var initiation models.PaymentInitiation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initiation))
	assert.Equal(t, models.PaymentKindDeposit, initiation.Kind)
	assert.Equal(t, 12.0, initiation.Amount)
	assert.Equal(t, 60.0, initiation.Total)
	assert.NotEmpty(t, initiation.ClientSecret)

	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit/confirm", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusServiceScheduled, resp.Booking.Status)
}

func TestInitiateDeposit_ProviderRejected(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit", f.providerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "only the seeker")
}

func TestInitiateDeposit_GatewayDown(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)
	f.gateway.createErr = fmt.Errorf("connection refused")

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit", f.seekerTok, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)
}

func TestConfirmDeposit_NotCaptured(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	f.gateway.captured = false
	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit/confirm", f.seekerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportCancellation(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/cancel", f.seekerTok,
		map[string]string{"kind": "deposit"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Cancellation is audit-only
	booking, err := f.store.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAddressConfirmed, booking.Status)

	events, err := f.audits.ListByBookingID(id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.PaymentEventCancelled, events[0].EventType)
	assert.Equal(t, models.PaymentSourceUser, events[0].EventSource)
}

func TestReportCancellation_BadKind(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/cancel", f.seekerTok,
		map[string]string{"kind": "tip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAuditTrail(t *testing.T) {
	f := newAPIFixture(t)
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/bookings/"+id+"/payments/audit", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.PaymentEventInitiated))
}

func TestQuote(t *testing.T) {
	f := newAPIFixture(t)

	base := 66.0
	discount := 6.0
	body := models.PaymentContext{
		BookingID:  "a_b",
		BasePrice:  &base,
		Discount:   &discount,
		FinalPrice: 48, // stale 80% figure must not win
	}

	w := f.do(t, http.MethodPost, "/api/v1/payments/quote", f.seekerTok, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var split models.PaymentSplit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &split))
	assert.Equal(t, 60.0, split.Total)
	assert.Equal(t, 12.0, split.Deposit)
	assert.Equal(t, 48.0, split.Balance)
}

func TestPricingQuote(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/pricing/quote", f.seekerTok,
		map[string]string{"start_time": "14:00", "end_time": "17:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Pricing   models.PricingResult `json:"pricing"`
		Formatted string               `json:"formatted"`
		Split     models.PaymentSplit  `json:"split"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 60.0, resp.Pricing.FinalPrice)
	assert.Equal(t, "60,00€", resp.Formatted)
	assert.Equal(t, 12.0, resp.Split.Deposit)
	assert.Equal(t, 48.0, resp.Split.Balance)
}

func TestPricingQuote_TooShort(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/pricing/quote", f.seekerTok,
		map[string]string{"start_time": "10:00", "end_time": "10:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(models.CodeBelowMinimum))
}

// ============================================================================
// REVIEW ENDPOINTS
// ============================================================================

// fullFlowToAwaitingRating drives a booking through deposit to awaiting_rating
func (f *apiFixture) fullFlowToAwaitingRating(t *testing.T) string {
	t.Helper()
	id := f.advanceToAddressConfirmed(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/deposit/confirm", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/performed", f.providerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id
}

func TestFullLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	id := f.fullFlowToAwaitingRating(t)

	// High rating advances straight to rating_given
	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/rating", f.seekerTok,
		map[string]interface{}{"rating": 5, "comment": "Wonderful with the kids"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusRatingGiven, resp.Booking.Status)

	// Balance payment completes the booking
	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/balance", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var initiation models.PaymentInitiation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initiation))
	assert.Equal(t, 48.0, initiation.Amount)

	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/balance/confirm", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCompleted, resp.Booking.Status)

	// Provider stats were recomputed from the recorded review
	w = f.do(t, http.MethodGet, "/api/v1/providers/"+providerID.String()+"/stats", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.ProviderStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalReviews)
	assert.Equal(t, 5.0, stats.AverageRating)
}

func TestLowRatingRequiresReview(t *testing.T) {
	f := newAPIFixture(t)
	id := f.fullFlowToAwaitingRating(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/rating", f.seekerTok,
		map[string]interface{}{"rating": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusReviewRequired, resp.Booking.Status)

	// Balance is blocked until the written review lands
	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/payments/balance", f.seekerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/review", f.seekerTok,
		map[string]string{"comment": "Arrived an hour late and left early."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusRatingGiven, resp.Booking.Status)
}

func TestSubmitRating_Invalid(t *testing.T) {
	f := newAPIFixture(t)
	id := f.fullFlowToAwaitingRating(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/rating", f.seekerTok,
		map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProviderReviews(t *testing.T) {
	f := newAPIFixture(t)
	id := f.fullFlowToAwaitingRating(t)

	w := f.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/rating", f.seekerTok,
		map[string]interface{}{"rating": 4, "comment": "Very reliable"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/providers/"+providerID.String()+"/reviews", f.seekerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Very reliable")
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestGetProviderReviews_BadID(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/providers/not-a-uuid/reviews", f.seekerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
