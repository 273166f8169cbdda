package payroll

// Lunch alert offsets in minutes after a lunch checkout.
var LunchAlertOffsetsMinutes = []int{70, 80, 90}

// MaxCountedBreakMinutes caps a single lunch break when accounting actual
// break time. Longer gaps are treated as the worker not returning, not as
// extra break.
const MaxCountedBreakMinutes = 120

// RequiredBreakMinutes is the mandatory lunch break as a step function of
// hours worked: 0 below 4h, 15 for [4h, 6h), 60 at 6h and above.
func RequiredBreakMinutes(hoursWorked float64) int {
	switch {
	case hoursWorked >= 6:
		return 60
	case hoursWorked >= 4:
		return 15
	default:
		return 0
	}
}

// LunchDeduction returns the minutes to deduct from the day's last
// checkout and whether the shortfall penalty applies.
func LunchDeduction(hoursWorked float64, actualBreakMinutes int) (int, bool) {
	required := RequiredBreakMinutes(hoursWorked)
	if required == 0 || actualBreakMinutes >= required {
		return 0, false
	}
	return required - actualBreakMinutes, true
}
