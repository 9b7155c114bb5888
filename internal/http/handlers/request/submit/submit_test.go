package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/models"
)

// MockService реализует интерфейс submit.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, accountUID string, req models.DummySubmitRequest) (string, error) {
	args := m.Called(ctx, accountUID, req)
	return args.String(0), args.Error(1)
}

func TestSubmitHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		accountUID     string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная подача заявки",
			requestBody: models.DummySubmitRequest{
				Plan:             "monthly",
				PaymentProofURLs: []string{"https://pay.example/receipt/1"},
			},
			accountUID: "acc-1",
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "acc-1", mock.AnythingOfType("models.DummySubmitRequest")).
					Return("req-1", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"request_id":"req-1"`,
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
			name:           "ошибка валидации",
			requestBody:    models.DummySubmitRequest{},
			accountUID:     "acc-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Plan is a required field`,
		},
		{
			name: "отсутствует авторизация",
			requestBody: models.DummySubmitRequest{
				Plan:             "monthly",
				PaymentProofURLs: []string{"https://pay.example/receipt/1"},
			},
			accountUID:     "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name: "неизвестный тариф",
			requestBody: models.DummySubmitRequest{
				Plan:             "weekly",
				PaymentProofURLs: []string{"https://pay.example/receipt/1"},
			},
			accountUID: "acc-1",
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "acc-1", mock.AnythingOfType("models.DummySubmitRequest")).
					Return("", fmt.Errorf("unknown plan: %w", apperr.ErrValidation))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `unknown plan`,
		},
		{
			name: "ошибка сервиса",
			requestBody: models.DummySubmitRequest{
				Plan:             "monthly",
				PaymentProofURLs: []string{"https://pay.example/receipt/1"},
			},
			accountUID: "acc-1",
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "acc-1", mock.AnythingOfType("models.DummySubmitRequest")).
					Return("", errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not submit request`,
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

			req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
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
