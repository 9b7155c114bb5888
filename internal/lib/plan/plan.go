// Package plan описывает тарифные планы подписки и правила выдачи прав.
// Платные срочные планы моделируются так же, как пробный период: премиум
// с датой окончания, которую энфорсер позже отберет. Отличие только
// в пожизненном плане — он выдается с признаком is_premium_admin_set.
package plan

import (
	"fmt"
	"time"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Plan тарифный план подписки.
type Plan string

const (
	// Monthly — один месяц премиума.
	Monthly Plan = "monthly"
	// Quarterly — три месяца премиума.
	Quarterly Plan = "quarterly"
	// Yearly — один год премиума.
	Yearly Plan = "yearly"
	// Lifetime — бессрочный премиум, не отзывается автоматически.
	Lifetime Plan = "lifetime"
)

// Parse проверяет, что строка является известным планом.
func Parse(s string) (Plan, error) {
	switch Plan(s) {
	case Monthly, Quarterly, Yearly, Lifetime:
		return Plan(s), nil
	}
	return "", fmt.Errorf("unknown plan %q: %w", s, apperr.ErrValidation)
}

// PriceRub возвращает стоимость плана в рублях.
func (p Plan) PriceRub() int {
	switch p {
	case Monthly:
		return 299
	case Quarterly:
		return 799
	case Yearly:
		return 2990
	case Lifetime:
		return 9990
	}
	return 0
}

// Grant возвращает частичное обновление аккаунта, выдающее права по плану.
// Для срочных планов премиум истекает в now + срок плана и остаётся
// под контролем энфорсера; для Lifetime выставляется is_premium_admin_set
// и дата окончания сбрасывается.
func (p Plan) Grant(now time.Time) models.AccountPatch {
	premium := true
	adminSet := p == Lifetime

	patch := models.AccountPatch{
		IsPremium:         &premium,
		IsPremiumAdminSet: &adminSet,
	}
	if p == Lifetime {
		patch.ClearTrialEndDate = true
		return patch
	}

	var end time.Time
	switch p {
	case Monthly:
		end = now.AddDate(0, 1, 0)
	case Quarterly:
		end = now.AddDate(0, 3, 0)
	case Yearly:
		end = now.AddDate(1, 0, 0)
	}
	patch.TrialEndDate = &end
	return patch
}
