package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryakhm/storefront-core/internal/models"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
)

type fakeSubscriber struct {
	in           chan *models.ProfileSnapshot
	unsubscribed bool
}

func (f *fakeSubscriber) SubscribeProfile(_ context.Context, _ string) (<-chan *models.ProfileSnapshot, func() error, error) {
	return f.in, func() error {
		if !f.unsubscribed {
			f.unsubscribed = true
			close(f.in)
		}
		return nil
	}, nil
}

// correctorStub классифицирует снимок и зовет onExpired, когда видит
// истекший, но не завершенный премиум.
type correctorStub struct {
	mu        sync.Mutex
	states    []enforcerservice.State
	onExpired func()
}

func (c *correctorStub) Evaluate(_ context.Context, account *models.Account, settings *models.StoreSettings) (enforcerservice.State, error) {
	state := enforcerservice.Classify(account, settings, time.Now().UTC())
	c.mu.Lock()
	c.states = append(c.states, state)
	c.mu.Unlock()
	if state == enforcerservice.StateExpiredUnenforced && c.onExpired != nil {
		c.onExpired()
	}
	return state, nil
}

func (c *correctorStub) seen() []enforcerservice.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]enforcerservice.State(nil), c.states...)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func receiveView(t *testing.T, updates <-chan *ProfileView) *ProfileView {
	t.Helper()
	select {
	case view, ok := <-updates:
		require.True(t, ok, "updates channel closed unexpectedly")
		return view
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for profile view")
		return nil
	}
}

func TestLiveProfileSession_DeliversInitialAndUpdates(t *testing.T) {
	sub := &fakeSubscriber{in: make(chan *models.ProfileSnapshot, 4)}
	sub.in <- nil // профиля еще нет

	session, err := OpenProfileSession(context.Background(), sub, nil, "uid-1", newNoopLogger())
	require.NoError(t, err)
	defer session.Close()

	first := receiveView(t, session.Updates())
	require.NotNil(t, first)
	assert.Nil(t, first.Profile)
	assert.Nil(t, first.Entitlement)
	assert.False(t, first.Loading)

	sub.in <- &models.ProfileSnapshot{AccountUID: "uid-1", IsPremium: true}
	second := receiveView(t, session.Updates())
	require.NotNil(t, second.Profile)
	assert.True(t, second.Profile.IsPremium)
	require.NotNil(t, second.Entitlement)
	assert.True(t, second.Entitlement.IsPremium)

	current, started := session.Current()
	assert.True(t, started)
	assert.Equal(t, second, current)
}

func TestLiveProfileSession_CurrentBeforeFirstSnapshotIsLoading(t *testing.T) {
	sub := &fakeSubscriber{in: make(chan *models.ProfileSnapshot)}

	session, err := OpenProfileSession(context.Background(), sub, nil, "uid-1", newNoopLogger())
	require.NoError(t, err)
	defer session.Close()

	view, started := session.Current()
	assert.False(t, started)
	require.NotNil(t, view)
	assert.True(t, view.Loading)
}

func TestLiveProfileSession_ExpiredTrialTriggersCorrection(t *testing.T) {
	sub := &fakeSubscriber{in: make(chan *models.ProfileSnapshot, 4)}
	corrector := &correctorStub{}
	// Корректировка со стороны энфорсера приходит в сессию новым снимком.
	// Ворота staleRead не дают ей вытеснить непрочитанное устаревшее
	// представление из буфера сессии.
	staleRead := make(chan struct{})
	corrector.onExpired = func() {
		<-staleRead
		sub.in <- &models.ProfileSnapshot{AccountUID: "uid-1"}
	}

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	sub.in <- &models.ProfileSnapshot{
		AccountUID:   "uid-1",
		IsPremium:    true,
		TrialEndDate: &yesterday,
		Settings:     models.SettingsView{WidgetEnabled: true},
	}

	session, err := OpenProfileSession(context.Background(), sub, corrector, "uid-1", newNoopLogger())
	require.NoError(t, err)
	defer session.Close()

	var gateOnce sync.Once
	openGate := func() { gateOnce.Do(func() { close(staleRead) }) }
	defer openGate()

	stale := receiveView(t, session.Updates())
	require.NotNil(t, stale.Profile)
	assert.True(t, stale.Profile.IsPremium)
	require.NotNil(t, stale.Entitlement)
	assert.True(t, stale.Entitlement.TrialExpired, "derived view must expose the expired trial")
	openGate()

	corrected := receiveView(t, session.Updates())
	require.NotNil(t, corrected.Profile)
	assert.False(t, corrected.Profile.IsPremium)
	require.NotNil(t, corrected.Entitlement)
	assert.False(t, corrected.Entitlement.IsPremium)
	assert.False(t, corrected.Entitlement.TrialExpired)

	// Вторая сверка запускается после выдачи исправленного представления
	require.Eventually(t, func() bool {
		return len(corrector.seen()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	states := corrector.seen()
	assert.Equal(t, enforcerservice.StateExpiredUnenforced, states[0])
	// Повторная сверка на исправленном снимке ничего не находит
	assert.Equal(t, enforcerservice.StateStandard, states[1])
}

func TestLiveProfileSession_SlowConsumerGetsLatest(t *testing.T) {
	sub := &fakeSubscriber{in: make(chan *models.ProfileSnapshot)}

	session, err := OpenProfileSession(context.Background(), sub, nil, "uid-1", newNoopLogger())
	require.NoError(t, err)
	defer session.Close()

	for i := range 5 {
		sub.in <- &models.ProfileSnapshot{AccountUID: "uid-1", Username: string(rune('a' + i))}
	}

	// Потребитель не читал: промежуточные представления вытеснены,
	// последним приходит самое свежее
	var got []string
	deadline := time.Now().Add(2 * time.Second)
	for {
		view := receiveView(t, session.Updates())
		require.NotNil(t, view.Profile)
		got = append(got, view.Profile.Username)
		if view.Profile.Username == "e" {
			break
		}
		require.True(t, time.Now().Before(deadline), "timed out waiting for last view")
	}
	assert.LessOrEqual(t, len(got), 5)
	assert.Equal(t, "e", got[len(got)-1])
}

func TestLiveProfileSession_CloseIsIdempotentAndFinal(t *testing.T) {
	sub := &fakeSubscriber{in: make(chan *models.ProfileSnapshot, 1)}
	sub.in <- &models.ProfileSnapshot{AccountUID: "uid-1"}

	session, err := OpenProfileSession(context.Background(), sub, nil, "uid-1", newNoopLogger())
	require.NoError(t, err)

	session.Close()
	session.Close()

	assert.True(t, sub.unsubscribed)

	// После Close канал закрыт и пуст
	_, ok := <-session.Updates()
	assert.False(t, ok)
}
