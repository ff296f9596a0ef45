package cancellation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"venuely/internal/bookings"
	"venuely/internal/notifications"
	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"
	"venuely/internal/shared/txguard"
	"venuely/internal/venues"
	"venuely/pkg/clock"
	"venuely/pkg/lock"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var bookingAt = time.Date(2030, 1, 2, 14, 0, 0, 0, time.UTC)

type nopCache struct{}

func (nopCache) InvalidateVenue(context.Context, uuid.UUID) {}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notifications.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg *notifications.Notification) {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
}

type fixture struct {
	db       *gorm.DB
	clock    *clock.Fixed
	venues   venues.Repository
	ledger   bookings.Repository
	repo     Repository
	notifier *recordingNotifier
	booker   bookings.Service
	service  Service
}

func newFixture(t *testing.T, fee float64) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&venues.Venue{}, &venues.Table{}, &bookings.Booking{}, &Cancellation{}))

	cfg := config.BookingConfig{
		Timezone:            "UTC",
		DefaultAmount:       99,
		DefaultCurrency:     "INR",
		RefundWindow:        4 * time.Hour,
		CancellationFee:     fee,
		DefaultCancelReason: "User cancelled",
		StoreTimeout:        2 * time.Second,
		MaxConflictRetries:  3,
	}
	guard := txguard.New(db, lock.NewKeyedMutex(), txguard.Options{StoreTimeout: 2 * time.Second, MaxConflictRetries: 3})

	f := &fixture{
		db:       db,
		clock:    clock.NewFixed(time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)),
		venues:   venues.NewRepository(db),
		ledger:   bookings.NewRepository(db),
		repo:     NewRepository(db),
		notifier: &recordingNotifier{},
	}
	f.booker = bookings.NewService(f.ledger, f.venues, guard, nopCache{}, f.notifier, cfg, f.clock)
	f.service = NewService(f.repo, f.ledger, f.venues, guard, nopCache{}, f.notifier, cfg, f.clock)
	return f
}

// book seeds a venue holding 15 of 20 seats and books 5 more for u1 at bookingAt
func (f *fixture) book(t *testing.T) (*venues.Venue, *bookings.Booking) {
	t.Helper()
	v := &venues.Venue{
		Name:        "Corner Bistro",
		Kind:        venues.KindRestaurant,
		Capacity:    20,
		BookedCount: 15,
		OpenTime:    "09:00",
		CloseTime:   "22:00",
	}
	require.NoError(t, f.db.Create(v).Error)

	result, err := f.booker.Book(context.Background(), "u1", bookings.CreateBookingRequest{
		VenueID:     v.ID.String(),
		Guests:      5,
		BookingDate: "2030-01-02",
		BookingTime: "14:00",
	}, "")
	require.NoError(t, err)
	return v, result.Booking
}

func (f *fixture) bookedCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	v, err := f.venues.GetByID(context.Background(), id)
	require.NoError(t, err)
	return v.BookedCount
}

func TestPolicyEvaluate(t *testing.T) {
	p := Policy{RefundWindow: 4 * time.Hour, Fee: 10}

	d := p.Evaluate(bookingAt, bookingAt.Add(-4*time.Hour), 99)
	assert.False(t, d.Eligible, "exactly at the window is not refundable")
	assert.Zero(t, d.RefundAmount)
	assert.Equal(t, 4.0, d.HoursBefore)

	d = p.Evaluate(bookingAt, bookingAt.Add(-4*time.Hour-time.Second), 99)
	assert.True(t, d.Eligible)
	assert.Equal(t, 89.0, d.RefundAmount)
	assert.Equal(t, 10.0, d.Fee)

	d = p.Evaluate(bookingAt, bookingAt.Add(-48*time.Hour), 5)
	assert.True(t, d.Eligible)
	assert.Zero(t, d.RefundAmount)
	assert.Equal(t, 5.0, d.Fee)
}

func TestNewRefundID(t *testing.T) {
	id := NewRefundID(bookingAt)
	assert.Regexp(t, fmt.Sprintf(`^RFND_%d_[0-9a-f]{8}$`, bookingAt.Unix()), id)
	assert.NotEqual(t, id, NewRefundID(bookingAt))
}

func TestCancelWellAheadRefunds(t *testing.T) {
	f := newFixture(t, 0)
	v, b := f.book(t)
	require.Equal(t, 20, f.bookedCount(t, v.ID))

	result, err := f.service.Cancel(context.Background(), "u1", false, CancelRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.True(t, result.Refunded)
	require.NotNil(t, result.RefundID)
	assert.True(t, strings.HasPrefix(*result.RefundID, "RFND_"))
	assert.Equal(t, 99.0, result.RefundAmount)

	assert.Equal(t, bookings.StatusCancelled, result.Booking.Status)
	assert.Equal(t, bookings.PaymentStatusRefunded, result.Booking.PaymentStatus)
	require.NotNil(t, result.Booking.CancellationReason)
	assert.Equal(t, "User cancelled", *result.Booking.CancellationReason)
	assert.Equal(t, 15, f.bookedCount(t, v.ID))

	audit, err := f.repo.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, audit)
	assert.True(t, audit.RefundEligible)
	assert.Equal(t, 30.0, audit.HoursBefore)
	assert.Equal(t, *result.RefundID, *audit.RefundID)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, notifications.NotificationTypeBookingCancelled, f.notifier.sent[1].Type)
}

func TestCancelAtRefundWindowDoesNotRefund(t *testing.T) {
	f := newFixture(t, 0)
	v, b := f.book(t)
	f.clock.Set(bookingAt.Add(-4 * time.Hour))

	result, err := f.service.Cancel(context.Background(), "u1", false,
		CancelRequest{BookingID: b.ID.String(), Reason: "plans changed"})
	require.NoError(t, err)
	assert.False(t, result.Refunded)
	assert.Nil(t, result.RefundID)
	assert.Equal(t, bookings.PaymentStatusPaid, result.Booking.PaymentStatus)
	assert.Equal(t, "plans changed", *result.Booking.CancellationReason)
	assert.Equal(t, 15, f.bookedCount(t, v.ID), "capacity is released even without a refund")
}

func TestCancelWithFee(t *testing.T) {
	f := newFixture(t, 10)
	_, b := f.book(t)

	result, err := f.service.Cancel(context.Background(), "u1", false, CancelRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 89.0, result.RefundAmount)
}

func TestCancelTwice(t *testing.T) {
	f := newFixture(t, 0)
	v, b := f.book(t)
	ctx := context.Background()

	_, err := f.service.Cancel(ctx, "u1", false, CancelRequest{BookingID: b.ID.String()})
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, "u1", false, CancelRequest{BookingID: b.ID.String()})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)
	assert.Equal(t, 15, f.bookedCount(t, v.ID))

	_, err = f.service.Quote(ctx, "u1", false, b.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)
}

func TestCancelOwnership(t *testing.T) {
	f := newFixture(t, 0)
	v, b := f.book(t)
	ctx := context.Background()

	_, err := f.service.Cancel(ctx, "u2", false, CancelRequest{BookingID: b.ID.String()})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, 20, f.bookedCount(t, v.ID))

	_, err = f.service.Cancel(ctx, "u2", false, CancelRequest{BookingID: uuid.NewString()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	result, err := f.service.Cancel(ctx, "ops", true, CancelRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, result.Booking.Status)

	record, err := f.service.GetCancellation(ctx, "u1", false, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "ops", record.CancelledBy)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, 0)
	_, b := f.book(t)
	ctx := context.Background()

	quote, err := f.service.Quote(ctx, "u1", false, b.ID.String())
	require.NoError(t, err)
	assert.True(t, quote.RefundEligible)
	assert.Equal(t, 99.0, quote.RefundAmount)
	assert.Equal(t, 4.0, quote.RefundWindowHours)

	f.clock.Set(bookingAt.Add(-time.Hour))
	quote, err = f.service.Quote(ctx, "u1", false, b.ID.String())
	require.NoError(t, err)
	assert.False(t, quote.RefundEligible)
	assert.Equal(t, 1.0, quote.HoursBefore)

	_, err = f.service.GetCancellation(ctx, "u1", false, b.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCancelBookingHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, 0)
	_, b := f.book(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "u1")
		c.Set(middleware.ContextUserRole, middleware.RoleUser)
		c.Next()
	})
	r.POST("/bookings/cancel", NewController(f.service).CancelBooking)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/bookings/cancel", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"bookingId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(fmt.Sprintf(`{"bookingId":%q}`, uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "booking not found")

	w = post(fmt.Sprintf(`{"bookingId":%q}`, b.ID))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		RefundID string `json:"refundId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.RefundID, "RFND_"))

	w = post(fmt.Sprintf(`{"bookingId":%q}`, b.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelRollsBackWhenReleaseFails(t *testing.T) {
	f := newFixture(t, 0)
	v, b := f.book(t)
	ctx := context.Background()

	// counter drifted below the booking's guests, so releasing them would go negative
	require.NoError(t, f.db.Model(&venues.Venue{}).Where("id = ?", v.ID).Update("booked_count", 2).Error)

	_, err := f.service.Cancel(ctx, "u1", false, CancelRequest{BookingID: b.ID.String()})
	assert.ErrorIs(t, err, apperrors.ErrCapacityViolation)

	stored, err := f.ledger.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusConfirmed, stored.Status)
	assert.Equal(t, bookings.PaymentStatusPaid, stored.PaymentStatus)
	assert.Nil(t, stored.RefundID)
	assert.Nil(t, stored.CancellationReason)

	audit, err := f.repo.GetByBookingID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, audit)
	assert.Equal(t, 2, f.bookedCount(t, v.ID))
	assert.Len(t, f.notifier.sent, 1, "only the booking confirmation")
}
