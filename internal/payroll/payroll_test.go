package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
)

func TestRequiredBreakMinutes(t *testing.T) {
	cases := []struct {
		hours float64
		want  int
	}{
		{0, 0},
		{3.99, 0},
		{4.0, 15},
		{5.99, 15},
		{6.0, 60},
		{7.5, 60},
		{12, 60},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, RequiredBreakMinutes(tc.hours), "hours=%v", tc.hours)
	}
}

func TestLunchDeduction(t *testing.T) {
	t.Run("short day never deducts", func(t *testing.T) {
		deduction, penalize := LunchDeduction(3.5, 0)
		require.Zero(t, deduction)
		require.False(t, penalize)
	})

	t.Run("sufficient break never deducts", func(t *testing.T) {
		deduction, penalize := LunchDeduction(7, 60)
		require.Zero(t, deduction)
		require.False(t, penalize)
	})

	t.Run("seven hours with ten minute lunch deducts fifty", func(t *testing.T) {
		deduction, penalize := LunchDeduction(7, 10)
		require.Equal(t, 50, deduction)
		require.True(t, penalize)
	})

	t.Run("mid tier shortfall", func(t *testing.T) {
		deduction, penalize := LunchDeduction(5, 5)
		require.Equal(t, 10, deduction)
		require.True(t, penalize)
	})
}

func TestSplitByOvertime(t *testing.T) {
	normal, overtime := SplitByOvertime(7 * 60)
	require.Equal(t, 420, normal)
	require.Zero(t, overtime)

	normal, overtime = SplitByOvertime(10 * 60)
	require.Equal(t, 480, normal)
	require.Equal(t, 120, overtime)

	normal, overtime = SplitByOvertime(8 * 60)
	require.Equal(t, 480, normal)
	require.Zero(t, overtime)
}

func TestComputePayment(t *testing.T) {
	t.Run("normal day for auxiliar", func(t *testing.T) {
		b := ComputePayment(model.RoleAuxiliar, 8*60, 0, 0, 0, 0)
		require.InDelta(t, 150.0, b.Total, 0.001)
	})

	t.Run("overtime priced at elevated rate", func(t *testing.T) {
		b := ComputePayment(model.RoleAuxiliar, 8*60, 2*60, 0, 0, 0)
		require.InDelta(t, 150.0+2*22.50, b.Total, 0.001)
	})

	t.Run("travel tiers", func(t *testing.T) {
		b := ComputePayment(model.RoleLider, 0, 0, 8*60, 60, 0)
		require.InDelta(t, 8*52.50+61.25, b.Total, 0.001)
	})

	t.Run("transit minutes at base rate", func(t *testing.T) {
		b := ComputePayment(model.RolePreparador, 0, 0, 0, 0, 60)
		require.InDelta(t, 22.50, b.Total, 0.001)
	})

	t.Run("unknown role pays zero", func(t *testing.T) {
		b := ComputePayment(model.Role("stranger"), 8*60, 0, 0, 0, 0)
		require.Zero(t, b.Total)
	})
}

func TestRateTableConsistency(t *testing.T) {
	for _, role := range []model.Role{
		model.RoleAuxiliar, model.RolePreparador, model.RoleLiderPreparacao,
		model.RoleAplicadorI, model.RoleAplicadorII, model.RoleAplicadorIII,
		model.RoleLider,
	} {
		r := RatesFor(role)
		require.InDelta(t, r.DailyRate/8, r.HourlyRate, 0.001, "role=%s", role)
		require.InDelta(t, r.HourlyRate*OvertimeMultiplier, r.OvertimeRate, 0.001, "role=%s", role)
		require.InDelta(t, r.HourlyRate*TravelMultiplier, r.TravelRate, 0.001, "role=%s", role)
		require.InDelta(t, r.HourlyRate*TravelOvertimeMultiplier, r.TravelOvertimeRate, 0.001, "role=%s", role)
	}
}
