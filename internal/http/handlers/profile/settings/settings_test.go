package settings

import (
	"bytes"
	"context"
	"encoding/json"
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
)

// MockService реализует интерфейс settings.Service
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

func (m *MockService) UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error) {
	args := m.Called(ctx, accountUID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileSnapshot), args.Error(1)
}

func premiumSnapshot() *models.ProfileSnapshot {
	trialEnd := time.Now().UTC().Add(24 * time.Hour)
	return &models.ProfileSnapshot{
		AccountUID:   "acc-1",
		Username:     "seller",
		Role:         models.RoleUser,
		IsPremium:    true,
		TrialEndDate: &trialEnd,
	}
}

func standardSnapshot() *models.ProfileSnapshot {
	return &models.ProfileSnapshot{
		AccountUID: "acc-1",
		Username:   "seller",
		Role:       models.RoleUser,
		IsPremium:  false,
	}
}

func TestSettingsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	on := true
	off := false

	tests := []struct {
		name           string
		requestBody    interface{}
		accountUID     string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "премиум-аккаунт включает виджет",
			requestBody: models.DummySettingsRequest{
				WidgetEnabled: &on,
			},
			accountUID: "acc-1",
			setupMock: func(m *MockService) {
				m.On("GetProfile", mock.Anything, "acc-1").Return(premiumSnapshot(), nil)
				m.On("UpdateSettings", mock.Anything, "acc-1",
					models.SettingsPatch{WidgetEnabled: &on}).
					Return(premiumSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"account_uid":"acc-1"`,
		},
		{
			name: "обычный аккаунт не может включить виджет",
			requestBody: models.DummySettingsRequest{
				WidgetEnabled: &on,
			},
			accountUID: "acc-1",
			setupMock: func(m *MockService) {
				m.On("GetProfile", mock.Anything, "acc-1").Return(standardSnapshot(), nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `premium required to enable storefront features`,
		},
		{
			name: "выключение флага не требует премиума",
			requestBody: models.DummySettingsRequest{
				BannerEnabled: &off,
			},
			accountUID: "acc-1",
			setupMock: func(m *MockService) {
				m.On("UpdateSettings", mock.Anything, "acc-1",
					models.SettingsPatch{BannerEnabled: &off}).
					Return(standardSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"account_uid":"acc-1"`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			accountUID:     "acc-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name: "отсутствует авторизация",
			requestBody: models.DummySettingsRequest{
				WidgetEnabled: &on,
			},
			accountUID:     "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPatch, "/profile/settings", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.AccountUID, tt.accountUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
