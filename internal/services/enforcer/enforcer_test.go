package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daryakhm/storefront-core/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) FindExpiredUnenforcedTrials(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *RepoMock) GetStoreSettings(ctx context.Context, accountUID string) (*models.StoreSettings, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoreSettings), args.Error(1)
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

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	settingsOff := &models.StoreSettings{}
	settingsOn := &models.StoreSettings{WidgetEnabled: true, BannerEnabled: true, ShowCategories: true}

	tests := []struct {
		name     string
		account  *models.Account
		settings *models.StoreSettings
		want     State
	}{
		{
			name:     "standard account without premium",
			account:  &models.Account{},
			settings: settingsOff,
			want:     StateStandard,
		},
		{
			name:     "active trial",
			account:  &models.Account{IsPremium: true, TrialEndDate: timePtr(future)},
			settings: settingsOn,
			want:     StateActiveTrial,
		},
		{
			name:     "admin granted premium ignores expired date",
			account:  &models.Account{IsPremium: true, IsPremiumAdminSet: true, TrialEndDate: timePtr(past)},
			settings: settingsOn,
			want:     StatePremiumPermanent,
		},
		{
			name:     "expired trial with premium still on",
			account:  &models.Account{IsPremium: true, TrialEndDate: timePtr(past)},
			settings: settingsOn,
			want:     StateExpiredUnenforced,
		},
		{
			name:     "expired trial with only settings left on",
			account:  &models.Account{TrialEndDate: timePtr(past)},
			settings: settingsOn,
			want:     StateExpiredUnenforced,
		},
		{
			name:     "expired trial fully enforced is standard",
			account:  &models.Account{TrialEndDate: timePtr(past)},
			settings: settingsOff,
			want:     StateStandard,
		},
		{
			name:     "trial end exactly now counts as expired",
			account:  &models.Account{IsPremium: true, TrialEndDate: timePtr(now)},
			settings: settingsOn,
			want:     StateExpiredUnenforced,
		},
		{
			name:     "admin set without premium is inconsistent",
			account:  &models.Account{IsPremiumAdminSet: true},
			settings: settingsOff,
			want:     StateInconsistent,
		},
		{
			name:     "premium without any end date is inconsistent",
			account:  &models.Account{IsPremium: true},
			settings: settingsOn,
			want:     StateInconsistent,
		},
		{
			name:     "settings on without premium and without expired trial is inconsistent",
			account:  &models.Account{},
			settings: settingsOn,
			want:     StateInconsistent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.account, tt.settings, now))
		})
	}
}

func TestEnforcerService_Evaluate(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	off := false

	tests := []struct {
		name       string
		account    *models.Account
		settings   *models.StoreSettings
		setupMocks func(p *ProfileMock)
		wantState  State
		wantErr    bool
	}{
		{
			name:     "expired trial corrects both documents",
			account:  &models.Account{UID: "uid-1", IsPremium: true, TrialEndDate: timePtr(past)},
			settings: &models.StoreSettings{WidgetEnabled: true, BannerEnabled: true, ShowCategories: true},
			setupMocks: func(p *ProfileMock) {
				p.On("UpdateAccount", mock.Anything, "uid-1", models.AccountPatch{
					IsPremium: &off,
				}).Return(&models.ProfileSnapshot{}, nil).Once()
				p.On("UpdateSettings", mock.Anything, "uid-1", models.SettingsPatch{
					WidgetEnabled:  &off,
					BannerEnabled:  &off,
					ShowCategories: &off,
				}).Return(&models.ProfileSnapshot{}, nil).Once()
			},
			wantState: StateExpiredUnenforced,
		},
		{
			name:     "partially enforced account writes only the rest",
			account:  &models.Account{UID: "uid-2", IsPremium: false, TrialEndDate: timePtr(past)},
			settings: &models.StoreSettings{WidgetEnabled: true},
			setupMocks: func(p *ProfileMock) {
				p.On("UpdateSettings", mock.Anything, "uid-2", models.SettingsPatch{
					WidgetEnabled: &off,
				}).Return(&models.ProfileSnapshot{}, nil).Once()
			},
			wantState: StateExpiredUnenforced,
		},
		{
			name:       "already enforced account writes nothing",
			account:    &models.Account{UID: "uid-3", TrialEndDate: timePtr(past)},
			settings:   &models.StoreSettings{},
			setupMocks: func(_ *ProfileMock) {},
			wantState:  StateStandard,
		},
		{
			name:       "admin granted premium is left alone",
			account:    &models.Account{UID: "uid-4", IsPremium: true, IsPremiumAdminSet: true},
			settings:   &models.StoreSettings{WidgetEnabled: true},
			setupMocks: func(_ *ProfileMock) {},
			wantState:  StatePremiumPermanent,
		},
		{
			name:       "inconsistent account is reported and untouched",
			account:    &models.Account{UID: "uid-5", IsPremiumAdminSet: true},
			settings:   &models.StoreSettings{},
			setupMocks: func(_ *ProfileMock) {},
			wantState:  StateInconsistent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			profile := new(ProfileMock)
			tt.setupMocks(profile)
			svc := NewEnforcerService(repo, profile, newNoopLogger())

			state, err := svc.Evaluate(context.Background(), tt.account, tt.settings)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, state)
			profile.AssertExpectations(t)
		})
	}
}
