package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan тарифный план подписки.
type Plan struct {
	Code     string
	Label    string
	Price    decimal.Decimal
	Duration time.Duration
}

// AmountCents цена плана в минимальных единицах валюты (сентаво).
func (p Plan) AmountCents() int64 {
	return p.Price.Shift(2).Round(0).IntPart()
}

// ExpiresAt момент окончания подписки, оформленной в момент from.
func (p Plan) ExpiresAt(from time.Time) time.Time {
	return from.Add(p.Duration)
}

const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

var plans = map[string]Plan{
	PlanMonthly: {
		Code:     PlanMonthly,
		Label:    "Mensal",
		Price:    decimal.RequireFromString("97.00"),
		Duration: 30 * 24 * time.Hour,
	},
	PlanYearly: {
		Code:     PlanYearly,
		Label:    "Anual",
		Price:    decimal.RequireFromString("970.00"),
		Duration: 365 * 24 * time.Hour,
	},
}

// LookupPlan возвращает план по коду.
func LookupPlan(code string) (Plan, bool) {
	p, ok := plans[code]
	return p, ok
}
