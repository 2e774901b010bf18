package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/careconnect/booking-backend/internal/models"
)

// ============================================================================
// IN-MEMORY FAKES
// ============================================================================

type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  map[string]*models.Booking
	updateErr error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*models.Booking)}
}

func (f *fakeBookingStore) Create(booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.bookings[booking.ID]; exists {
		return fmt.Errorf("duplicate booking id %s", booking.ID)
	}
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingStore) GetByID(id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) Update(booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.bookings[booking.ID]; !ok {
		return fmt.Errorf("booking %s not found", booking.ID)
	}
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

type fakeGateway struct {
	mu          sync.Mutex
	createCalls int
	createErr   error
	confirmErr  error
	captured    bool
	lastAmount  int64
	lastMeta    map[string]string
}

func (f *fakeGateway) CreateIntent(amountMinor int64, currency string, metadata map[string]string) (*models.GatewayIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastAmount = amountMinor
	f.lastMeta = metadata
	return &models.GatewayIntent{
		ID:           fmt.Sprintf("pi_fake_%d", f.createCalls),
		ClientSecret: fmt.Sprintf("pi_fake_%d_secret", f.createCalls),
		Status:       "requires_payment_method",
	}, nil
}

func (f *fakeGateway) ConfirmIntent(intentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return false, f.confirmErr
	}
	return f.captured, nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*models.PaymentAudit
}

func (f *fakeAuditStore) Record(entry *models.PaymentAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditStore) lastEvent() *models.PaymentAudit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return nil
	}
	return f.entries[len(f.entries)-1]
}

type fakeReviewStore struct {
	mu      sync.Mutex
	reviews []*models.Review
	stats   map[uuid.UUID]*models.ProviderStats
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{stats: make(map[uuid.UUID]*models.ProviderStats)}
}

func (f *fakeReviewStore) Create(review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeReviewStore) GetByBookingID(bookingID string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewStore) ListByProvider(providerID uuid.UUID) ([]*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Review
	for _, r := range f.reviews {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) GetStats(providerID uuid.UUID) (*models.ProviderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats[providerID], nil
}

func (f *fakeReviewStore) UpsertStats(stats *models.ProviderStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[stats.ProviderID] = stats
	return nil
}

// ============================================================================
// BOOKING FIXTURES
// ============================================================================

var (
	testSeekerID   = uuid.MustParse("3f1c0a52-8d8b-4f0e-9a51-111111111111")
	testProviderID = uuid.MustParse("9b7e55de-41aa-47c9-8a36-222222222222")
)

func testServiceRequest() *models.ServiceRequest {
	return &models.ServiceRequest{
		Sector:      "childcare",
		ServiceDate: "2026-09-14",
		StartTime:   "14:00",
		EndTime:     "17:00",
		SeekerID:    testSeekerID,
		ProviderID:  testProviderID,
	}
}

// seedBooking creates a booking through the service and walks it forward to
// the wanted status using the stores directly.
func seedBooking(store *fakeBookingStore, lifecycle *BookingService, status models.BookingStatus) *models.Booking {
	booking, _, err := lifecycle.CreateBooking(testServiceRequest())
	if err != nil {
		panic(err)
	}
	if status == models.StatusDiscussing {
		return booking
	}

	address := "12 Rue des Lilas, Lyon"
	booking.Address = &address
	booking.Status = status
	if err := store.Update(booking); err != nil {
		panic(err)
	}
	return booking
}
