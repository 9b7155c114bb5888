package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryakhm/storefront-core/internal/apperr"
)

func TestParse(t *testing.T) {
	for _, known := range []string{"monthly", "quarterly", "yearly", "lifetime"} {
		p, err := Parse(known)
		require.NoError(t, err)
		assert.Equal(t, Plan(known), p)
	}

	_, err := Parse("weekly")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Parse("")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGrant(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		plan              Plan
		wantEnd           *time.Time
		wantAdminSet      bool
		wantClearTrialEnd bool
	}{
		{
			name:    "monthly",
			plan:    Monthly,
			wantEnd: ptrTime(now.AddDate(0, 1, 0)),
		},
		{
			name:    "quarterly",
			plan:    Quarterly,
			wantEnd: ptrTime(now.AddDate(0, 3, 0)),
		},
		{
			name:    "yearly",
			plan:    Yearly,
			wantEnd: ptrTime(now.AddDate(1, 0, 0)),
		},
		{
			name:              "lifetime",
			plan:              Lifetime,
			wantEnd:           nil,
			wantAdminSet:      true,
			wantClearTrialEnd: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch := tt.plan.Grant(now)

			require.NotNil(t, patch.IsPremium)
			assert.True(t, *patch.IsPremium)

			require.NotNil(t, patch.IsPremiumAdminSet)
			assert.Equal(t, tt.wantAdminSet, *patch.IsPremiumAdminSet)

			assert.Equal(t, tt.wantClearTrialEnd, patch.ClearTrialEndDate)

			if tt.wantEnd == nil {
				assert.Nil(t, patch.TrialEndDate)
			} else {
				require.NotNil(t, patch.TrialEndDate)
				assert.Equal(t, *tt.wantEnd, *patch.TrialEndDate)
			}
		})
	}
}

func TestPriceRub(t *testing.T) {
	assert.Equal(t, 299, Monthly.PriceRub())
	assert.Equal(t, 799, Quarterly.PriceRub())
	assert.Equal(t, 2990, Yearly.PriceRub())
	assert.Equal(t, 9990, Lifetime.PriceRub())
	assert.Equal(t, 0, Plan("weekly").PriceRub())
}

func ptrTime(t time.Time) *time.Time { return &t }
