package bookings

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

	"venuely/internal/notifications"
	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"
	"venuely/internal/shared/txguard"
	"venuely/internal/shared/validation"
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

var testNow = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

const testDate = "2030-01-02"

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		Timezone:             "UTC",
		DefaultAmount:        99,
		DefaultCurrency:      "INR",
		RefundWindow:         4 * time.Hour,
		DefaultCancelReason:  "User cancelled",
		StoreTimeout:         2 * time.Second,
		MaxConflictRetries:   3,
		IdempotencyKeyMaxLen: 64,
	}
}

type recordingCache struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (c *recordingCache) InvalidateVenue(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	c.ids = append(c.ids, id)
	c.mu.Unlock()
}

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
	ledger   Repository
	venues   venues.Repository
	guard    *txguard.Guard
	cache    *recordingCache
	notifier *recordingNotifier
	service  Service
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&venues.Venue{}, &venues.Table{}, &Booking{}))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:       db,
		ledger:   NewRepository(db),
		venues:   venues.NewRepository(db),
		guard:    txguard.New(db, lock.NewKeyedMutex(), txguard.Options{StoreTimeout: 2 * time.Second, MaxConflictRetries: 3}),
		cache:    &recordingCache{},
		notifier: &recordingNotifier{},
	}
	f.service = NewService(f.ledger, f.venues, f.guard, f.cache, f.notifier, testBookingConfig(), clock.NewFixed(testNow))
	return f
}

func (f *fixture) seedVenue(t *testing.T, capacity, booked int, openAt, closeAt string) *venues.Venue {
	t.Helper()
	v := &venues.Venue{
		Name:        "Corner Bistro",
		Kind:        venues.KindRestaurant,
		Capacity:    capacity,
		BookedCount: booked,
		OpenTime:    openAt,
		CloseTime:   closeAt,
	}
	require.NoError(t, f.db.Create(v).Error)
	return v
}

func (f *fixture) bookedCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	v, err := f.venues.GetByID(context.Background(), id)
	require.NoError(t, err)
	return v.BookedCount
}

func request(venueID uuid.UUID, guests int, at string) CreateBookingRequest {
	return CreateBookingRequest{
		VenueID:     venueID.String(),
		Guests:      guests,
		BookingDate: testDate,
		BookingTime: at,
	}
}

func TestBookWorkedExample(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 20, 15, "09:00", "22:00")
	ctx := context.Background()

	_, err := f.service.Book(ctx, "u1", request(v.ID, 6, "14:00"), "")
	ce, ok := apperrors.AsCapacityExceeded(err)
	require.True(t, ok, "want capacity exceeded, got %v", err)
	assert.Equal(t, 5, ce.Remaining)
	assert.Equal(t, 15, f.bookedCount(t, v.ID))

	result, err := f.service.Book(ctx, "u1", request(v.ID, 5, "14:00"), "")
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, StatusConfirmed, result.Booking.Status)
	assert.Equal(t, PaymentStatusPaid, result.Booking.PaymentStatus)
	assert.Equal(t, 99.0, result.Booking.AmountPaid)
	assert.Equal(t, "INR", result.Booking.Currency)
	assert.Equal(t, 20, f.bookedCount(t, v.ID))

	_, err = f.service.Book(ctx, "u1", request(v.ID, 1, "23:00"), "")
	assert.ErrorIs(t, err, apperrors.ErrOutOfHours)
	assert.Equal(t, 20, f.bookedCount(t, v.ID))

	assert.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notifications.NotificationTypeBookingConfirmed, f.notifier.sent[0].Type)
	assert.Contains(t, f.cache.ids, v.ID)
}

func TestBookWrappingHours(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "22:00", "02:00")
	ctx := context.Background()

	_, err := f.service.Book(ctx, "u1", request(v.ID, 2, "23:30"), "")
	require.NoError(t, err)
	_, err = f.service.Book(ctx, "u1", request(v.ID, 2, "01:15"), "")
	require.NoError(t, err)
	_, err = f.service.Book(ctx, "u1", request(v.ID, 2, "12:00"), "")
	assert.ErrorIs(t, err, apperrors.ErrOutOfHours)

	assert.Equal(t, 4, f.bookedCount(t, v.ID))
}

func TestBookRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	ctx := context.Background()

	_, err := f.service.Book(ctx, "u1", request(uuid.New(), 2, "14:00"), "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	past := request(v.ID, 2, "14:00")
	past.BookingDate = "2029-12-31"
	_, err = f.service.Book(ctx, "u1", past, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.service.Book(ctx, "u1", request(v.ID, 0, "14:00"), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.service.Book(ctx, "u1", request(v.ID, 2, "14:00"), strings.Repeat("k", 65))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Equal(t, 0, f.bookedCount(t, v.ID))
}

func TestConcurrentBookingsNeverOverbook(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")

	const workers = 8
	const guests = 3

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, rejected := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Book(context.Background(), fmt.Sprintf("u%d", i), request(v.ID, guests, "18:00"), "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
				return
			}
			if _, ok := apperrors.AsCapacityExceeded(err); ok {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10/guests, admitted)
	assert.Equal(t, workers-10/guests, rejected)
	assert.Equal(t, admitted*guests, f.bookedCount(t, v.ID))

	sum, err := f.ledger.SumConfirmedGuests(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, admitted*guests, sum)
}

func TestBookIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	ctx := context.Background()

	first, err := f.service.Book(ctx, "u1", request(v.ID, 2, "19:00"), "retry-1")
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	again, err := f.service.Book(ctx, "u1", request(v.ID, 2, "19:00"), "retry-1")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Booking.ID, again.Booking.ID)
	assert.Equal(t, 2, f.bookedCount(t, v.ID))

	_, err = f.service.Book(ctx, "u1", request(v.ID, 3, "19:00"), "retry-1")
	assert.ErrorIs(t, err, apperrors.ErrIdempotencyMismatch)

	// keys are scoped per user
	other, err := f.service.Book(ctx, "u2", request(v.ID, 2, "19:00"), "retry-1")
	require.NoError(t, err)
	assert.False(t, other.Replayed)
	assert.Equal(t, 4, f.bookedCount(t, v.ID))
}

func TestGetBookingOwnership(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	ctx := context.Background()

	result, err := f.service.Book(ctx, "owner", request(v.ID, 2, "19:00"), "")
	require.NoError(t, err)
	id := result.Booking.ID.String()

	_, err = f.service.GetBooking(ctx, "owner", false, id)
	require.NoError(t, err)
	_, err = f.service.GetBooking(ctx, "someone", false, id)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.service.GetBooking(ctx, "someone", true, id)
	require.NoError(t, err)
	_, err = f.service.GetBooking(ctx, "owner", false, uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	page, err := f.service.GetUserBookings(ctx, "owner", BookingListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestLedgerTransition(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	ctx := context.Background()

	result, err := f.service.Book(ctx, "u1", request(v.ID, 2, "19:00"), "")
	require.NoError(t, err)
	id := result.Booking.ID

	reason := "plans changed"
	cancelled, err := f.ledger.Transition(ctx, id, StatusCancelled, TransitionUpdate{Reason: &reason, At: testNow})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, reason, *cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, PaymentStatusPaid, cancelled.PaymentStatus)

	_, err = f.ledger.Transition(ctx, id, StatusCancelled, TransitionUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)

	_, err = f.ledger.Transition(ctx, id, StatusConfirmed, TransitionUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	completed := &Booking{
		VenueID: v.ID, UserID: "u1", Guests: 1, BookingDate: testDate, BookingTime: "10:00",
		ScheduledAt: testNow, Currency: "INR", PaymentStatus: PaymentStatusPaid, Status: StatusCompleted,
	}
	require.NoError(t, f.ledger.Create(ctx, completed))
	_, err = f.ledger.Transition(ctx, completed.ID, StatusCancelled, TransitionUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.ledger.Transition(ctx, uuid.New(), StatusCancelled, TransitionUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHasConfirmedReservations(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	ctx := context.Background()

	has, err := f.service.HasConfirmedReservations(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = f.service.Book(ctx, "u1", request(v.ID, 2, "19:00"), "")
	require.NoError(t, err)

	has, err = f.service.HasConfirmedReservations(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestReconcilerDetectsAndRepairsDrift(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	healthy := f.seedVenue(t, 10, 0, "09:00", "22:00")
	ctx := context.Background()

	_, err := f.service.Book(ctx, "u1", request(v.ID, 4, "19:00"), "")
	require.NoError(t, err)

	// counter written behind the ledger's back
	require.NoError(t, f.db.Model(&venues.Venue{}).Where("id = ?", v.ID).Update("booked_count", 7).Error)

	report, err := NewReconciler(f.ledger, f.venues, f.guard, f.cache, time.Minute, false).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 2, Drifted: 1}, report)
	assert.Equal(t, 7, f.bookedCount(t, v.ID))

	report, err = NewReconciler(f.ledger, f.venues, f.guard, f.cache, time.Minute, true).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 2, Drifted: 1, Repaired: 1}, report)
	assert.Equal(t, 4, f.bookedCount(t, v.ID))
	assert.Equal(t, 0, f.bookedCount(t, healthy.ID))
}

func TestReconcilerStartStop(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(f.ledger, f.venues, f.guard, f.cache, time.Hour, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	r.Stop()
	r.Stop()
}

func TestReconcileNowHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	require.NoError(t, f.db.Model(&venues.Venue{}).Where("id = ?", v.ID).Update("booked_count", 3).Error)

	r := gin.New()
	r.POST("/admin/reconcile", ReconcileNow(NewReconciler(f.ledger, f.venues, f.guard, f.cache, time.Minute, true)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reconcile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data ReconcileReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ReconcileReport{Checked: 1, Drifted: 1, Repaired: 1}, resp.Data)
	assert.Equal(t, 0, f.bookedCount(t, v.ID))
}

func newTestRouter(f *fixture, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = validation.Register()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, middleware.RoleUser)
		c.Next()
	})
	ctrl := NewController(f.service)
	r.POST("/bookings", ctrl.CreateBooking)
	r.GET("/bookings/:id", ctrl.GetBooking)
	return r
}

func postBooking(r http.Handler, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookingHandler(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 20, 15, "09:00", "22:00")
	r := newTestRouter(f, "u1")

	body := func(guests int, at string) string {
		return fmt.Sprintf(`{"venueId":%q,"guests":%d,"bookingDate":%q,"bookingTime":%q}`, v.ID, guests, testDate, at)
	}

	w := postBooking(r, body(6, "14:00"), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	var rejected map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejected))
	assert.EqualValues(t, 5, rejected["remaining"])

	w = postBooking(r, body(1, "9:00"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "bookingTime must be HH:MM")

	w = postBooking(r, body(1, "23:00"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postBooking(r, fmt.Sprintf(`{"venueId":%q,"guests":1,"bookingDate":%q,"bookingTime":"12:00"}`, uuid.New(), testDate), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "venue not found")

	w = postBooking(r, body(5, "14:00"), "abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderIdempotentReplayed))

	var created struct {
		Message string  `json:"message"`
		Data    Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 5, created.Data.Guests)

	w = postBooking(r, body(5, "14:00"), "abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(HeaderIdempotentReplayed))

	w = postBooking(r, body(4, "14:00"), "abc")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/"+created.Data.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// failingCounter lets the reservation insert through and fails the counter update after it
type failingCounter struct {
	venues.Repository
	err error
}

func (r failingCounter) WithTx(tx *gorm.DB) venues.Repository {
	return failingCounter{Repository: r.Repository.WithTx(tx), err: r.err}
}

func (r failingCounter) AdjustBookedCount(context.Context, *venues.Venue, int) (*venues.Venue, error) {
	return nil, r.err
}

func TestBookLeavesNoReservationWhenCounterFails(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"invariant violation", fmt.Errorf("venue counter: %w", apperrors.ErrCapacityViolation), apperrors.ErrCapacityViolation},
		{"lost every retry", apperrors.ErrConcurrentUpdate, apperrors.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.seedVenue(t, 10, 3, "09:00", "22:00")
			service := NewService(f.ledger, failingCounter{Repository: f.venues, err: tc.err}, f.guard,
				f.cache, f.notifier, testBookingConfig(), clock.NewFixed(testNow))

			_, err := service.Book(context.Background(), "u1", request(v.ID, 2, "19:00"), "k1")
			assert.ErrorIs(t, err, tc.want)

			var rows int64
			require.NoError(t, f.db.Model(&Booking{}).Where("venue_id = ?", v.ID).Count(&rows).Error)
			assert.Zero(t, rows)
			assert.Equal(t, 3, f.bookedCount(t, v.ID))
			assert.Empty(t, f.notifier.sent)

			// the key was never stored, so a retry against a healthy counter books normally
			result, err := f.service.Book(context.Background(), "u1", request(v.ID, 2, "19:00"), "k1")
			require.NoError(t, err)
			assert.False(t, result.Replayed)
			assert.Equal(t, 5, f.bookedCount(t, v.ID))
		})
	}
}

func TestReplayMessageFollowsCurrentStatus(t *testing.T) {
	f := newFixture(t)
	v := f.seedVenue(t, 10, 0, "09:00", "22:00")
	r := newTestRouter(f, "u1")
	body := fmt.Sprintf(`{"venueId":%q,"guests":2,"bookingDate":%q,"bookingTime":"19:00"}`, v.ID, testDate)

	decode := func(w *httptest.ResponseRecorder) (string, Booking) {
		var resp struct {
			Message string  `json:"message"`
			Data    Booking `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Message, resp.Data
	}

	w := postBooking(r, body, "dinner")
	require.Equal(t, http.StatusOK, w.Code)
	msg, created := decode(w)
	assert.Equal(t, "Booking confirmed", msg)

	w = postBooking(r, body, "dinner")
	require.Equal(t, http.StatusOK, w.Code)
	msg, _ = decode(w)
	assert.Equal(t, "Booking already confirmed", msg)

	reason := "plans changed"
	_, err := f.ledger.Transition(context.Background(), created.ID, StatusCancelled, TransitionUpdate{Reason: &reason, At: testNow})
	require.NoError(t, err)

	w = postBooking(r, body, "dinner")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(HeaderIdempotentReplayed))
	msg, replayed := decode(w)
	assert.Equal(t, "Booking was already made and has since been cancelled", msg)
	assert.Equal(t, StatusCancelled, replayed.Status)
	assert.Equal(t, 2, f.bookedCount(t, v.ID), "a replay never books again")
}
