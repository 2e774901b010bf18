package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/booking-backend/internal/models"
)

type reviewFixture struct {
	store     *fakeReviewStore
	bookings  *fakeBookingStore
	lifecycle *BookingService
	svc       *ReviewService
}

func newReviewFixture() *reviewFixture {
	bookings := newFakeBookingStore()
	lifecycle := NewBookingService(bookings, newTestPricingService(), testLogger())
	store := newFakeReviewStore()
	return &reviewFixture{
		store:     store,
		bookings:  bookings,
		lifecycle: lifecycle,
		svc:       NewReviewService(store, bookings, lifecycle, testLogger()),
	}
}

func TestSubmitRating_HighRating(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	updated, err := f.svc.SubmitRating(booking.ID, testSeekerID, 5, "Wonderful with the kids")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRatingGiven, updated.Status)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)

	review, err := f.store.GetByBookingID(booking.ID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, "Wonderful with the kids", review.Comment)
	assert.Equal(t, testProviderID, review.ProviderID)
	assert.True(t, review.Verified)
	assert.InDelta(t, 3.0, review.ServiceHours, 0.0001)
	assert.InDelta(t, 60.0, review.Amount, 0.0001)
}

func TestSubmitRating_ThresholdGetsDefaultComment(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	updated, err := f.svc.SubmitRating(booking.ID, testSeekerID, 3, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRatingGiven, updated.Status)

	review, err := f.store.GetByBookingID(booking.ID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, DefaultAckComment, review.Comment)
}

func TestSubmitRating_LowRatingRequiresReview(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	updated, err := f.svc.SubmitRating(booking.ID, testSeekerID, 2, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewRequired, updated.Status)

	// No review record yet: it arrives with the written text.
	review, err := f.store.GetByBookingID(booking.ID)
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestSubmitRating_Validation(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	for _, rating := range []int{0, -1, 6} {
		_, err := f.svc.SubmitRating(booking.ID, testSeekerID, rating, "")
		require.Error(t, err, "rating=%d", rating)
	}

	_, err := f.svc.SubmitRating(booking.ID, testProviderID, 5, "")
	require.Error(t, err, "provider cannot rate their own service")
}

func TestSubmitRating_WrongStatus(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusServiceScheduled)

	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 5, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not awaiting a rating")
}

func TestSubmitReview_ReleasesLowRatedBooking(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 1, "")
	require.NoError(t, err)

	updated, err := f.svc.SubmitReview(booking.ID, testSeekerID, "Arrived two hours late and left early.")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRatingGiven, updated.Status)

	review, err := f.store.GetByBookingID(booking.ID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, 1, review.Rating)
	assert.Equal(t, "Arrived two hours late and left early.", review.Comment)
}

func TestSubmitReview_RequiresText(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 2, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitReview(booking.ID, testSeekerID, "   ")
	require.Error(t, err)
}

func TestSubmitReview_WrongStatus(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	_, err := f.svc.SubmitReview(booking.ID, testSeekerID, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not require a review")
}

func TestReview_AppendOnly(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 4, "")
	require.NoError(t, err)

	// The booking has moved on, so every resubmission path is closed.
	_, err = f.svc.SubmitRating(booking.ID, testSeekerID, 5, "changed my mind")
	require.Error(t, err)
	_, err = f.svc.SubmitReview(booking.ID, testSeekerID, "changed my mind")
	require.Error(t, err)

	reviews, err := f.store.ListByProvider(testProviderID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestSubmitRating_LowRatingWithCommentRecordsImmediately(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	// Text supplied with the low rating already satisfies the
	// detailed-review rule, nothing is parked or discarded.
	updated, err := f.svc.SubmitRating(booking.ID, testSeekerID, 2, "Arrived late and left the kitchen a mess")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRatingGiven, updated.Status)

	review, err := f.store.GetByBookingID(booking.ID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, 2, review.Rating)
	assert.Equal(t, "Arrived late and left the kitchen a mess", review.Comment)
}

func TestSubmitRating_RetryAfterStoreFailure(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	f.bookings.updateErr = errors.New("connection reset by peer")
	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 4, "Great help")
	require.Error(t, err)

	stored, err := f.bookings.GetByID(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingRating, stored.Status)

	// Once the store recovers the same submission must go through, even
	// though the review row already landed on the first attempt.
	f.bookings.updateErr = nil
	updated, err := f.svc.SubmitRating(booking.ID, testSeekerID, 4, "Great help")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRatingGiven, updated.Status)

	reviews, err := f.store.ListByProvider(testProviderID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Great help", reviews[0].Comment)
}

func TestSubmitReview_RetryAfterStoreFailure(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 2, "")
	require.NoError(t, err)

	f.bookings.updateErr = errors.New("connection reset by peer")
	_, err = f.svc.SubmitReview(booking.ID, testSeekerID, "Late and unprepared.")
	require.Error(t, err)

	stored, err := f.bookings.GetByID(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewRequired, stored.Status)

	f.bookings.updateErr = nil
	updated, err := f.svc.SubmitReview(booking.ID, testSeekerID, "Late and unprepared.")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRatingGiven, updated.Status)

	reviews, err := f.store.ListByProvider(testProviderID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 2, reviews[0].Rating)
}

func TestProviderStats_Recomputed(t *testing.T) {
	f := newReviewFixture()
	booking := seedBooking(f.bookings, f.lifecycle, models.StatusAwaitingRating)

	_, err := f.svc.SubmitRating(booking.ID, testSeekerID, 4, "")
	require.NoError(t, err)

	stats, err := f.svc.GetProviderStats(testProviderID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalReviews)
	assert.InDelta(t, 4.0, stats.AverageRating, 0.0001)

	// A second review from another seeker updates the aggregate.
	second := &models.Review{
		ID:         uuid.New(),
		BookingID:  "other_booking",
		ProviderID: testProviderID,
		SeekerID:   testSeekerID,
		Rating:     5,
	}
	require.NoError(t, f.store.Create(second))
	require.NoError(t, f.svc.recomputeStats(testProviderID))

	stats, err = f.svc.GetProviderStats(testProviderID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReviews)
	assert.InDelta(t, 4.5, stats.AverageRating, 0.0001)
	assert.Equal(t, models.RatingDistribution{4: 1, 5: 1}, stats.Distribution)
}

func TestProviderStats_NoReviews(t *testing.T) {
	f := newReviewFixture()

	stats, err := f.svc.GetProviderStats(testProviderID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReviews)
	assert.Zero(t, stats.AverageRating)
}
