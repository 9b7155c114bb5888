package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateRequest(ctx context.Context, req models.SubscriptionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionRequest), args.Error(1)
}

func (m *RepoMock) ListRequests(ctx context.Context, status *models.RequestStatus, limit, offset int) ([]*models.SubscriptionRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionRequest), args.Error(1)
}

func (m *RepoMock) ListRequestsByAccount(ctx context.Context, accountUID string, limit, offset int) ([]*models.SubscriptionRequest, error) {
	args := m.Called(ctx, accountUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionRequest), args.Error(1)
}

func (m *RepoMock) UpdateRequestReview(ctx context.Context, id string, status models.RequestStatus,
	reviewedBy string, notes *string, reviewedAt time.Time) (int, error) {
	args := m.Called(ctx, id, status, reviewedBy, notes, reviewedAt)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetAccount(ctx context.Context, accountUID string) (*models.Account, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type ProfileMock struct{ mock.Mock }

func (m *ProfileMock) UpdateAccount(ctx context.Context, accountUID string, patch models.AccountPatch) (*models.ProfileSnapshot, error) {
	args := m.Called(ctx, accountUID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileSnapshot), args.Error(1)
}

func (m *ProfileMock) UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error) {
	args := m.Called(ctx, accountUID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileSnapshot), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) SendDirectNotification(ctx context.Context, accountUID, title, body string) error {
	return m.Called(ctx, accountUID, title, body).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRequestService_Submit(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummySubmitRequest
		setupMocks func(r *RepoMock)
		wantID     string
		wantErr    error
	}{
		{
			name: "success submit",
			req: models.DummySubmitRequest{
				Plan:             "monthly",
				PaymentProofURLs: []string{"https://cdn.example.com/proof.png"},
			},
			setupMocks: func(r *RepoMock) {
				r.On("CreateRequest", mock.Anything, mock.MatchedBy(func(req models.SubscriptionRequest) bool {
					return req.AccountUID == "uid-1" &&
						req.Plan == "monthly" &&
						req.Status == models.RequestPending
				})).Return("req-1", nil).Once()
			},
			wantID: "req-1",
		},
		{
			name: "unknown plan",
			req: models.DummySubmitRequest{
				Plan:             "weekly",
				PaymentProofURLs: []string{"https://cdn.example.com/proof.png"},
			},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name: "missing payment proof",
			req: models.DummySubmitRequest{
				Plan: "monthly",
			},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := NewRequestService(repo, new(ProfileMock), new(NotifierMock), nil, newNoopLogger())

			id, err := svc.Submit(context.Background(), "uid-1", tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRequestService_List(t *testing.T) {
	repo := new(RepoMock)
	svc := NewRequestService(repo, new(ProfileMock), new(NotifierMock), nil, newNoopLogger())

	_, err := svc.List(context.Background(), "user", nil, 10, 0)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	repo.On("ListRequests", mock.Anything, (*models.RequestStatus)(nil), 10, 0).
		Return([]*models.SubscriptionRequest{{ID: "req-1"}}, nil).Once()
	got, err := svc.List(context.Background(), "admin", nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	repo.AssertExpectations(t)
}

func TestRequestService_Review(t *testing.T) {
	pendingReq := func() *models.SubscriptionRequest {
		return &models.SubscriptionRequest{
			ID:         "req-1",
			AccountUID: "uid-1",
			Plan:       "monthly",
			Status:     models.RequestPending,
		}
	}
	account := &models.Account{UID: "uid-1", Email: "m@example.com", Username: "merchant1"}

	tests := []struct {
		name       string
		role       string
		review     models.DummyReviewRequest
		setupMocks func(r *RepoMock, p *ProfileMock, n *NotifierMock)
		wantErr    error
		wantAnyErr bool
	}{
		{
			name:   "approve grants premium then records decision",
			role:   "admin",
			review: models.DummyReviewRequest{Decision: "approved", Notes: "ok"},
			setupMocks: func(r *RepoMock, p *ProfileMock, n *NotifierMock) {
				r.On("GetRequest", mock.Anything, "req-1").Return(pendingReq(), nil).Once()
				p.On("UpdateAccount", mock.Anything, "uid-1", mock.MatchedBy(func(patch models.AccountPatch) bool {
					return patch.IsPremium != nil && *patch.IsPremium &&
						patch.IsPremiumAdminSet != nil && !*patch.IsPremiumAdminSet &&
						patch.TrialEndDate != nil
				})).Return(&models.ProfileSnapshot{}, nil).Once()
				p.On("UpdateSettings", mock.Anything, "uid-1", mock.Anything).
					Return(&models.ProfileSnapshot{}, nil).Once()
				r.On("UpdateRequestReview", mock.Anything, "req-1", models.RequestApproved,
					"admin-1", mock.Anything, mock.Anything).Return(1, nil).Once()
				n.On("SendDirectNotification", mock.Anything, "uid-1", mock.Anything, mock.Anything).
					Return(nil).Once()
				r.On("GetAccount", mock.Anything, "uid-1").Return(account, nil).Once()
				reviewed := pendingReq()
				reviewed.Status = models.RequestApproved
				r.On("GetRequest", mock.Anything, "req-1").Return(reviewed, nil).Once()
			},
		},
		{
			name:   "reject does not touch profile",
			role:   "admin",
			review: models.DummyReviewRequest{Decision: "rejected"},
			setupMocks: func(r *RepoMock, p *ProfileMock, n *NotifierMock) {
				r.On("GetRequest", mock.Anything, "req-1").Return(pendingReq(), nil).Once()
				r.On("UpdateRequestReview", mock.Anything, "req-1", models.RequestRejected,
					"admin-1", (*string)(nil), mock.Anything).Return(1, nil).Once()
				n.On("SendDirectNotification", mock.Anything, "uid-1", mock.Anything, mock.Anything).
					Return(nil).Once()
				r.On("GetAccount", mock.Anything, "uid-1").Return(account, nil).Once()
				reviewed := pendingReq()
				reviewed.Status = models.RequestRejected
				r.On("GetRequest", mock.Anything, "req-1").Return(reviewed, nil).Once()
			},
		},
		{
			name:       "non admin is forbidden",
			role:       "user",
			review:     models.DummyReviewRequest{Decision: "approved"},
			setupMocks: func(_ *RepoMock, _ *ProfileMock, _ *NotifierMock) {},
			wantErr:    apperr.ErrForbidden,
		},
		{
			name:       "unknown decision",
			role:       "admin",
			review:     models.DummyReviewRequest{Decision: "maybe"},
			setupMocks: func(_ *RepoMock, _ *ProfileMock, _ *NotifierMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name:   "already reviewed request",
			role:   "admin",
			review: models.DummyReviewRequest{Decision: "approved"},
			setupMocks: func(r *RepoMock, _ *ProfileMock, _ *NotifierMock) {
				reviewed := pendingReq()
				reviewed.Status = models.RequestApproved
				r.On("GetRequest", mock.Anything, "req-1").Return(reviewed, nil).Once()
			},
			wantErr: apperr.ErrAlreadyReviewed,
		},
		{
			name:   "grant failure keeps request pending",
			role:   "admin",
			review: models.DummyReviewRequest{Decision: "approved"},
			setupMocks: func(r *RepoMock, p *ProfileMock, _ *NotifierMock) {
				r.On("GetRequest", mock.Anything, "req-1").Return(pendingReq(), nil).Once()
				p.On("UpdateAccount", mock.Anything, "uid-1", mock.Anything).
					Return(nil, errors.New("storage down")).Once()
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			profile := new(ProfileMock)
			notifier := new(NotifierMock)
			tt.setupMocks(repo, profile, notifier)
			svc := NewRequestService(repo, profile, notifier, nil, newNoopLogger())

			got, err := svc.Review(context.Background(), "admin-1", tt.role, "req-1", tt.review)

			switch {
			case tt.wantAnyErr:
				require.Error(t, err)
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			default:
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.NotEqual(t, models.RequestPending, got.Status)
			}
			repo.AssertExpectations(t)
			profile.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}
