// Package services реализует живую сессию профиля: локальный объект,
// который держит последний снимок профиля, сверяет его с правилами
// премиум-доступа и отдает обновления по мере их публикации.
// Используется SSE-потоком профиля.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/daryakhm/storefront-core/internal/entitlement"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
)

// ProfileSubscriber описывает источник снимков профиля.
//
// Контракт отписки: возвращенная функция обязана закрыть канал снимков.
// Close сессии дожидается завершения чтения из канала и без его закрытия
// не вернется.
type ProfileSubscriber interface {
	SubscribeProfile(ctx context.Context, accountUID string) (<-chan *models.ProfileSnapshot, func() error, error)
}

// Corrector сверяет премиум-флаги аккаунта со сроком действия и дописывает
// недостающие корректировки. Реализуется энфорсером; корректировки
// публикуют свежие снимки, которые сессия получит следующими.
type Corrector interface {
	Evaluate(ctx context.Context, account *models.Account, settings *models.StoreSettings) (enforcerservice.State, error)
}

// ProfileView снимок профиля вместе с производной сводкой прав.
// Loading выставлен, пока не пришел первый снимок; nil Profile при
// снятом Loading означает, что профиля еще нет.
type ProfileView struct {
	Profile     *models.ProfileSnapshot `json:"profile"`
	Entitlement *entitlement.Summary    `json:"entitlement"`
	Loading     bool                    `json:"loading"`
}

// LiveProfileSession живая сессия профиля одного аккаунта.
//
// Канал Updates отдает представления с вытеснением: если потребитель не
// успевает, промежуточные состояния заменяются более новыми. Каждый снимок
// самодостаточен, поэтому пропуск промежуточного состояния безопасен.
// На каждом входящем снимке сессия запускает сверку премиум-флагов:
// истекший срок, замеченный во время открытой сессии, корректируется
// сразу, не дожидаясь фонового обхода.
type LiveProfileSession struct {
	mu      sync.RWMutex
	current *ProfileView
	started bool

	updates     chan *ProfileView
	done        chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func() error
	corrector   Corrector
	closeOnce   sync.Once
	log         *slog.Logger
}

// OpenProfileSession подписывается на профиль и возвращает открытую сессию.
// Первое представление приходит в Updates сразу после открытия. nil
// corrector отключает сверку, сессия становится только читающей.
func OpenProfileSession(ctx context.Context, sub ProfileSubscriber, corrector Corrector, accountUID string, log *slog.Logger) (*LiveProfileSession, error) {
	sessionCtx, cancel := context.WithCancel(ctx)
	in, unsubscribe, err := sub.SubscribeProfile(sessionCtx, accountUID)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &LiveProfileSession{
		updates:     make(chan *ProfileView, 1),
		done:        make(chan struct{}),
		ctx:         sessionCtx,
		cancel:      cancel,
		unsubscribe: unsubscribe,
		corrector:   corrector,
		log:         log,
	}
	go s.pump(in)
	return s, nil
}

// Updates возвращает канал представлений профиля. Канал закрывается после
// Close; после закрытия из него не приходит ни одного значения.
func (s *LiveProfileSession) Updates() <-chan *ProfileView {
	return s.updates
}

// Current возвращает последнее представление и признак того, что хотя бы
// один снимок уже приходил. До первого снимка возвращается представление
// с выставленным Loading.
func (s *LiveProfileSession) Current() (*ProfileView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return &ProfileView{Loading: true}, false
	}
	return s.current, true
}

// Close останавливает сессию. Повторный вызов безопасен. После возврата
// канал Updates закрыт и пуст.
func (s *LiveProfileSession) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if err := s.unsubscribe(); err != nil {
			s.log.Warn("failed to unsubscribe profile session", slog.Any("err", err))
		}
		<-s.done
		for {
			select {
			case <-s.updates:
				continue
			default:
			}
			break
		}
		close(s.updates)
	})
}

func (s *LiveProfileSession) pump(in <-chan *models.ProfileSnapshot) {
	defer close(s.done)
	for snap := range in {
		view := &ProfileView{
			Profile:     snap,
			Entitlement: entitlement.Derive(snap.AccountView(), time.Now().UTC()),
		}

		s.mu.Lock()
		s.current = view
		s.started = true
		s.mu.Unlock()

		// Вытеснение: в буфере остается только самое свежее представление.
		for {
			select {
			case s.updates <- view:
			default:
				select {
				case <-s.updates:
				default:
				}
				continue
			}
			break
		}

		// Сверка после выдачи: корректировки придут следующим снимком,
		// на уже исправленном состоянии сверка ничего не пишет.
		if s.corrector != nil && snap != nil {
			if _, err := s.corrector.Evaluate(s.ctx, snap.AccountView(), snap.StoreSettingsView()); err != nil {
				s.log.Warn("failed to reconcile premium flags", sl.Err(err))
			}
		}
	}
}
