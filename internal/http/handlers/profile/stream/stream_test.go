package stream

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/models"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
)

type fakeSubscriber struct {
	in chan *models.ProfileSnapshot
}

func (f *fakeSubscriber) SubscribeProfile(_ context.Context, _ string) (<-chan *models.ProfileSnapshot, func() error, error) {
	return f.in, func() error {
		close(f.in)
		return nil
	}, nil
}

type correctorStub struct {
	mu     sync.Mutex
	states []enforcerservice.State
}

func (c *correctorStub) Evaluate(_ context.Context, account *models.Account, settings *models.StoreSettings) (enforcerservice.State, error) {
	state := enforcerservice.Classify(account, settings, time.Now().UTC())
	c.mu.Lock()
	c.states = append(c.states, state)
	c.mu.Unlock()
	return state, nil
}

func (c *correctorStub) seen() []enforcerservice.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]enforcerservice.State(nil), c.states...)
}

func TestStreamHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	sub := &fakeSubscriber{in: make(chan *models.ProfileSnapshot, 2)}
	sub.in <- &models.ProfileSnapshot{
		AccountUID:   "acc-1",
		Username:     "merchant1",
		IsPremium:    true,
		TrialEndDate: &yesterday,
		Settings:     models.SettingsView{WidgetEnabled: true},
	}
	corrector := &correctorStub{}

	handler := New(logger, sub, corrector)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = context.WithValue(ctx, middlewarectx.AccountUID, "acc-1")
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "test-request-id")

	req := httptest.NewRequest("GET", "/profile/stream", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rr, req)
		close(done)
	}()

	// Даем обработчику принять снимок и записать событие
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not stop after context cancellation")
	}

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Contains(t, body, "data: ")
	assert.Contains(t, body, `"username":"merchant1"`)
	assert.Contains(t, body, `"trial_expired":true`)
	assert.Contains(t, body, `"loading":false`)

	// Сверка запущена на входящем снимке и увидела истекший премиум
	states := corrector.seen()
	require.NotEmpty(t, states)
	assert.Equal(t, enforcerservice.StateExpiredUnenforced, states[0])
}

func TestStreamHandler_Unauthorized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := New(logger, &fakeSubscriber{in: make(chan *models.ProfileSnapshot)}, &correctorStub{})

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "test-request-id")
	req := httptest.NewRequest("GET", "/profile/stream", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, 401, rr.Code)
	assert.Contains(t, rr.Body.String(), "unauthorized")
}
