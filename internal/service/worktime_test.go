package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
)

func TestDayMinutesCountsWorkAndBreak(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	lunch := model.CheckoutReasonLunch
	shift := model.CheckoutReasonEndOfShift

	lunchOut := day.Add(12 * time.Hour)
	shiftEnd := day.Add(17 * time.Hour)

	sessions := []model.WorkSession{
		{CheckinAt: day.Add(7 * time.Hour), CheckoutAt: &lunchOut, CheckoutReason: &lunch},
		{CheckinAt: day.Add(13 * time.Hour), CheckoutAt: &shiftEnd, CheckoutReason: &shift},
	}

	worked, breaks := DayMinutes(sessions)
	require.Equal(t, 540, worked)
	require.Equal(t, 60, breaks)
}

func TestDayMinutesCapsRunawayBreak(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	lunch := model.CheckoutReasonLunch
	shift := model.CheckoutReasonEndOfShift

	lunchOut := day.Add(12 * time.Hour)
	shiftEnd := day.Add(18 * time.Hour)

	sessions := []model.WorkSession{
		{CheckinAt: day.Add(8 * time.Hour), CheckoutAt: &lunchOut, CheckoutReason: &lunch},
		{CheckinAt: day.Add(15 * time.Hour), CheckoutAt: &shiftEnd, CheckoutReason: &shift},
	}

	worked, breaks := DayMinutes(sessions)
	require.Equal(t, 420, worked)
	require.Equal(t, 120, breaks)
}

func TestDayMinutesIgnoresOpenSessions(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	sessions := []model.WorkSession{
		{CheckinAt: day.Add(7 * time.Hour)},
	}

	worked, breaks := DayMinutes(sessions)
	require.Zero(t, worked)
	require.Zero(t, breaks)
}

func TestAggregateDayBucketsAndPays(t *testing.T) {
	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 23, 55, 0, 0, testLoc))
	svc := NewWorktimeService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Paula", model.RolePreparador)
	project := createProject(t, d.db, "Obra Central", "07:00")

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(7*time.Hour), day.Add(12*time.Hour), model.CheckoutReasonLunch)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(13*time.Hour), day.Add(17*time.Hour), model.CheckoutReasonEndOfShift)

	summary, err := svc.AggregateDay(ctx, worker.ID, day)
	require.NoError(t, err)
	require.NotNil(t, summary)

	// The morning session closed for lunch is not worked time; only the
	// afternoon shift is paid.
	require.Equal(t, 240, summary.NormalMinutes)
	require.Zero(t, summary.OvertimeMinutes)
	require.Zero(t, summary.TravelMinutes)
	require.Zero(t, summary.TransitMinutes)
	require.Equal(t, 60, summary.LunchBreakMinutes)
	require.Zero(t, summary.LunchDeductionMinutes)

	// 4h at 22.50 for a preparador.
	require.InDelta(t, 90.0, summary.PaymentTotal, 0.001)
}

func TestClassifyExcludesLunchSessionMinutes(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	lunch := model.CheckoutReasonLunch
	shift := model.CheckoutReasonEndOfShift

	lunchOut := day.Add(12 * time.Hour)
	shiftEnd := day.Add(17 * time.Hour)

	sessions := []model.WorkSession{
		{CheckinAt: day.Add(7 * time.Hour), CheckoutAt: &lunchOut, CheckoutReason: &lunch},
		{CheckinAt: day.Add(13 * time.Hour), CheckoutAt: &shiftEnd, CheckoutReason: &shift},
	}

	b := classify(sessions, map[int64]bool{})
	require.Equal(t, 240, b.WorkedMinutes)
	require.Equal(t, 240, b.NormalMinutes)
	require.Zero(t, b.OvertimeMinutes)
	require.Equal(t, 60, b.BreakMinutes)
}

func TestAggregateDayTravelAndTransitTiers(t *testing.T) {
	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 23, 55, 0, 0, testLoc))
	svc := NewWorktimeService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Rafa", model.RoleAuxiliar)
	travel := createProject(t, d.db, "Obra Litoral", "07:00")
	require.NoError(t, d.db.Model(travel).Update("travel_mode", true).Error)

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, travel.ID,
		day.Add(7*time.Hour), day.Add(16*time.Hour), model.CheckoutReasonOtherProject)
	closedSession(t, d.db, worker.ID, travel.ID,
		day.Add(16*time.Hour).Add(30*time.Minute), day.Add(18*time.Hour), model.CheckoutReasonEndOfShift)

	summary, err := svc.AggregateDay(ctx, worker.ID, day)
	require.NoError(t, err)
	require.NotNil(t, summary)

	// The other_project session is transit regardless of travel mode; the
	// closing session lands in the travel tier.
	require.Equal(t, 540, summary.TransitMinutes)
	require.Equal(t, 90, summary.TravelMinutes)
	require.Zero(t, summary.TravelOvertimeMinutes)
	require.Zero(t, summary.NormalMinutes)
}

func TestAggregateDayIsIdempotentUpsert(t *testing.T) {
	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 23, 55, 0, 0, testLoc))
	svc := NewWorktimeService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Nina", model.RoleAplicadorII)
	project := createProject(t, d.db, "Obra Sul", "08:00")

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	session := closedSession(t, d.db, worker.ID, project.ID,
		day.Add(8*time.Hour), day.Add(16*time.Hour), model.CheckoutReasonEndOfShift)

	first, err := svc.AggregateDay(ctx, worker.ID, day)
	require.NoError(t, err)
	require.Equal(t, 480, first.NormalMinutes)

	// Shorten the session and re-run: same row, corrected numbers.
	corrected := day.Add(14 * time.Hour)
	require.NoError(t, d.db.Model(session).Update("checkout_at", corrected).Error)

	second, err := svc.AggregateDay(ctx, worker.ID, day)
	require.NoError(t, err)
	require.Equal(t, 360, second.NormalMinutes)

	var count int64
	require.NoError(t, d.db.Model(&model.DailyWorkSummary{}).
		Where("worker_id = ?", worker.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAggregateDayNoSessionsReturnsNil(t *testing.T) {
	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 23, 55, 0, 0, testLoc))
	svc := NewWorktimeService(d)

	worker := createWorker(t, d.db, "Leo", model.RoleAuxiliar)

	summary, err := svc.AggregateDay(context.Background(), worker.ID, time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc))
	require.NoError(t, err)
	require.Nil(t, summary)
}

func TestScanDailyAggregatesEveryActiveDay(t *testing.T) {
	at := time.Date(2026, 8, 24, 23, 55, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, at)
	svc := NewWorktimeService(d)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Leste", "07:00")
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)

	for _, name := range []string{"A", "B", "C"} {
		worker := createWorker(t, d.db, name, model.RoleAuxiliar)
		closedSession(t, d.db, worker.ID, project.ID,
			day.Add(7*time.Hour), day.Add(15*time.Hour), model.CheckoutReasonEndOfShift)
	}

	counts, err := svc.ScanDaily(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, counts.Processed)
	require.Equal(t, 3, counts.Sent)
	require.Zero(t, counts.Failed)

	var rows int64
	require.NoError(t, d.db.Model(&model.DailyWorkSummary{}).Count(&rows).Error)
	require.EqualValues(t, 3, rows)
}

func TestSummaryReturnsNilWhenMissing(t *testing.T) {
	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc))
	svc := NewWorktimeService(d)

	summary, err := svc.Summary(context.Background(), 42, time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc))
	require.NoError(t, err)
	require.Nil(t, summary)
}
