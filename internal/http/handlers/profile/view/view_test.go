package view

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/models"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
)

// MockService реализует интерфейс view.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) GetProfile(ctx context.Context, accountUID string) (*models.ProfileSnapshot, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileSnapshot), args.Error(1)
}

// MockCorrector реализует интерфейс view.Corrector
type MockCorrector struct {
	mock.Mock
}

func (m *MockCorrector) Evaluate(ctx context.Context, account *models.Account, settings *models.StoreSettings) (enforcerservice.State, error) {
	args := m.Called(ctx, account, settings)
	return args.Get(0).(enforcerservice.State), args.Error(1)
}

func TestViewHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	tomorrow := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name           string
		accountUID     string
		setupMocks     func(*MockService, *MockCorrector)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "активный пробный период отдается как есть",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, c *MockCorrector) {
				snap := &models.ProfileSnapshot{
					AccountUID:   "acc-1",
					IsPremium:    true,
					TrialEndDate: &tomorrow,
				}
				s.On("GetProfile", mock.Anything, "acc-1").Return(snap, nil).Once()
				c.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
					Return(enforcerservice.StateActiveTrial, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_on_trial":true`,
		},
		{
			name:       "истекший премиум завершается до ответа",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, c *MockCorrector) {
				stale := &models.ProfileSnapshot{
					AccountUID:   "acc-1",
					IsPremium:    true,
					TrialEndDate: &yesterday,
					Settings:     models.SettingsView{WidgetEnabled: true},
				}
				corrected := &models.ProfileSnapshot{AccountUID: "acc-1"}
				s.On("GetProfile", mock.Anything, "acc-1").Return(stale, nil).Once()
				c.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
					Return(enforcerservice.StateExpiredUnenforced, nil).Once()
				s.On("GetProfile", mock.Anything, "acc-1").Return(corrected, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_premium":false`,
		},
		{
			name:       "ошибка сверки не мешает отдать профиль",
			accountUID: "acc-1",
			setupMocks: func(s *MockService, c *MockCorrector) {
				snap := &models.ProfileSnapshot{AccountUID: "acc-1", Username: "merchant1"}
				s.On("GetProfile", mock.Anything, "acc-1").Return(snap, nil).Once()
				c.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
					Return(enforcerservice.StateStandard, assert.AnError).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"username":"merchant1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			corrector := new(MockCorrector)
			tt.setupMocks(service, corrector)

			handler := New(logger, service, corrector)

			ctx := context.WithValue(context.Background(), middlewarectx.AccountUID, tt.accountUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "test-request-id")

			req := httptest.NewRequest("GET", "/profile", nil).WithContext(ctx)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
			corrector.AssertExpectations(t)
		})
	}
}
