package payroll

import "fieldops/internal/model"

// PaymentBreakdown splits a day's pay by tier.
type PaymentBreakdown struct {
	NormalPay         float64
	OvertimePay       float64
	TravelPay         float64
	TravelOvertimePay float64
	TransitPay        float64
	Total             float64
}

// SplitByOvertime caps minutes at the 8h normal tier, returning
// (normal, overtime).
func SplitByOvertime(minutes int) (int, int) {
	normalCap := NormalHoursPerDay * 60
	if minutes <= normalCap {
		return minutes, 0
	}
	return normalCap, minutes - normalCap
}

// ComputePayment prices the day's minute buckets for a role. Transit
// minutes (travel to another project, supply purchase) are paid at the
// base hourly rate regardless of tier.
func ComputePayment(role model.Role, normalMin, overtimeMin, travelMin, travelOvertimeMin, transitMin int) PaymentBreakdown {
	rates := RatesFor(role)

	b := PaymentBreakdown{
		NormalPay:         float64(normalMin) / 60 * rates.HourlyRate,
		OvertimePay:       float64(overtimeMin) / 60 * rates.OvertimeRate,
		TravelPay:         float64(travelMin) / 60 * rates.TravelRate,
		TravelOvertimePay: float64(travelOvertimeMin) / 60 * rates.TravelOvertimeRate,
		TransitPay:        float64(transitMin) / 60 * rates.HourlyRate,
	}
	b.Total = b.NormalPay + b.OvertimePay + b.TravelPay + b.TravelOvertimePay + b.TransitPay

	return b
}
