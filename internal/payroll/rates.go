// Package payroll holds the pay rate table and the daily payment and
// lunch-break rules derived from it.
package payroll

import "fieldops/internal/model"

// Rates is the per-role pay schedule in currency units per hour.
type Rates struct {
	DailyRate          float64
	HourlyRate         float64
	OvertimeRate       float64
	TravelRate         float64
	TravelOvertimeRate float64
}

// Rate multipliers applied over the base hourly rate.
const (
	OvertimeMultiplier       = 1.20
	TravelMultiplier         = 1.20
	TravelOvertimeMultiplier = 1.40
)

// NormalHoursPerDay is where the overtime tier starts.
const NormalHoursPerDay = 8

var roleRates = map[model.Role]Rates{
	model.RoleAuxiliar:        {DailyRate: 150, HourlyRate: 18.75, OvertimeRate: 22.50, TravelRate: 22.50, TravelOvertimeRate: 26.25},
	model.RolePreparador:      {DailyRate: 180, HourlyRate: 22.50, OvertimeRate: 27.00, TravelRate: 27.00, TravelOvertimeRate: 31.50},
	model.RoleLiderPreparacao: {DailyRate: 195, HourlyRate: 24.375, OvertimeRate: 29.25, TravelRate: 29.25, TravelOvertimeRate: 34.125},
	model.RoleAplicadorI:      {DailyRate: 200, HourlyRate: 25.00, OvertimeRate: 30.00, TravelRate: 30.00, TravelOvertimeRate: 35.00},
	model.RoleAplicadorII:     {DailyRate: 300, HourlyRate: 37.50, OvertimeRate: 45.00, TravelRate: 45.00, TravelOvertimeRate: 52.50},
	model.RoleAplicadorIII:    {DailyRate: 330, HourlyRate: 41.25, OvertimeRate: 49.50, TravelRate: 49.50, TravelOvertimeRate: 57.75},
	model.RoleLider:           {DailyRate: 350, HourlyRate: 43.75, OvertimeRate: 52.50, TravelRate: 52.50, TravelOvertimeRate: 61.25},
}

// RatesFor returns the pay schedule for a role. Unknown roles get zero
// rates so aggregation degrades instead of failing.
func RatesFor(role model.Role) Rates {
	return roleRates[role]
}

// XP penalties applied by the reconciliation jobs.
const (
	LunchShortfallPenalty  int64 = 500
	ReportExpiredPenalty   int64 = 7000
	SameDayAbsencePenalty  int64 = 15000
)

// PunctualityXPReward is granted on each true streak increment.
const PunctualityXPReward int64 = 50

// PunctualityToleranceMinutes is how late a first check-in may be and
// still count as punctual.
const PunctualityToleranceMinutes = 10

// MaxPunctualityMultiplier caps the streak multiplier.
const MaxPunctualityMultiplier = 5.0
