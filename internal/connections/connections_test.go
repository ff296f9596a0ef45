package connections

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"venuely/internal/notifications"
	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/middleware"
	"venuely/internal/shared/txguard"
	"venuely/pkg/clock"
	"venuely/pkg/lock"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	sent []*notifications.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg *notifications.Notification) {
	n.sent = append(n.sent, msg)
}

func newTestService(t *testing.T) (Service, *recordingNotifier) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Connection{}))

	guard := txguard.New(db, lock.NewKeyedMutex(), txguard.Options{StoreTimeout: 2 * time.Second, MaxConflictRetries: 1})
	notifier := &recordingNotifier{}
	clk := clock.NewFixed(time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC))
	return NewService(NewRepository(db), guard, notifier, clk), notifier
}

func TestRequestConnection(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, "alice", ConnectRequest{RecipientID: "alice"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	conn, err := svc.Request(ctx, "alice", ConnectRequest{RecipientID: "bob", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, conn.Status)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notifications.NotificationTypeConnectionRequested, notifier.sent[0].Type)
	assert.Equal(t, "bob", notifier.sent[0].RecipientID)

	_, err = svc.Request(ctx, "alice", ConnectRequest{RecipientID: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// the reverse direction is a separate edge
	_, err = svc.Request(ctx, "bob", ConnectRequest{RecipientID: "alice"})
	assert.NoError(t, err)
}

func TestRespondToConnection(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	conn, err := svc.Request(ctx, "alice", ConnectRequest{RecipientID: "bob"})
	require.NoError(t, err)

	_, err = svc.Respond(ctx, "alice", conn.ID.String(), true)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Respond(ctx, "carol", conn.ID.String(), true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	accepted, err := svc.Respond(ctx, "bob", conn.ID.String(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, notifications.NotificationTypeConnectionAccepted, notifier.sent[1].Type)
	assert.Equal(t, "alice", notifier.sent[1].RecipientID)

	_, err = svc.Respond(ctx, "bob", conn.ID.String(), false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestRejectDoesNotNotify(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	conn, err := svc.Request(ctx, "alice", ConnectRequest{RecipientID: "bob"})
	require.NoError(t, err)

	rejected, err := svc.Respond(ctx, "bob", conn.ID.String(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Len(t, notifier.sent, 1)
}

func TestListConnections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Request(ctx, "alice", ConnectRequest{RecipientID: "bob"})
	require.NoError(t, err)
	_, err = svc.Request(ctx, "carol", ConnectRequest{RecipientID: "alice"})
	require.NoError(t, err)
	_, err = svc.Request(ctx, "bob", ConnectRequest{RecipientID: "carol"})
	require.NoError(t, err)
	_, err = svc.Respond(ctx, "bob", first.ID.String(), true)
	require.NoError(t, err)

	all, err := svc.List(ctx, "alice", ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	accepted, err := svc.List(ctx, "alice", ListQuery{Status: StatusAccepted})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, first.ID, accepted[0].ID)

	incoming, err := svc.List(ctx, "alice", ListQuery{Direction: "incoming"})
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "carol", incoming[0].RequesterID)

	_, err = svc.List(ctx, "alice", ListQuery{Status: "MAYBE"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestConnectionHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "alice")
		c.Next()
	})
	ctrl := NewController(svc)
	r.POST("/connections", ctrl.RequestConnection)
	r.GET("/connections", ctrl.ListConnections)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/connections", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post(`{}`).Code)
	assert.Equal(t, http.StatusCreated, post(`{"recipientId":"bob"}`).Code)
	assert.Equal(t, http.StatusConflict, post(`{"recipientId":"bob"}`).Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/connections?status=PENDING", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recipientId":"bob"`)
}
