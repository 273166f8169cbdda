package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
)

func punctualityFixture(t *testing.T) (*PunctualityService, deps, *model.Worker, *model.Project) {
	t.Helper()

	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 8, 0, 0, 0, testLoc))
	svc := NewPunctualityService(d)
	worker := createWorker(t, d.db, "Marcos", model.RoleAplicadorI)
	project := createProject(t, d.db, "Galpao Norte", "08:00")

	return svc, d, worker, project
}

func TestHandleCheckinWithinTolerance(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	checkin := time.Date(2026, 8, 24, 8, 5, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.True(t, outcome.Evaluated)
	require.True(t, outcome.Punctual)
	require.Equal(t, 1, outcome.Streak)
	require.InDelta(t, 1.1, outcome.Multiplier, 0.001)
	require.EqualValues(t, 50, outcome.XPAwarded)

	stored := reloadWorker(t, d.db, worker.ID)
	require.Equal(t, 1, stored.PunctualityStreak)
	require.EqualValues(t, 50, stored.XPTotal)
	require.NotNil(t, stored.LastPunctualDate)

	var ledger model.XPTransaction
	require.NoError(t, d.db.Where("worker_id = ?", worker.ID).First(&ledger).Error)
	require.Equal(t, model.XPReasonPunctuality, ledger.Reason)
	require.EqualValues(t, 50, ledger.Amount)
}

func TestHandleCheckinLateResetsStreak(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	yesterday := time.Date(2026, 8, 23, 0, 0, 0, 0, testLoc)
	require.NoError(t, d.db.Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     4,
		"punctuality_multiplier": 1.4,
		"last_punctual_date":     yesterday,
	}).Error)
	worker = reloadWorker(t, d.db, worker.ID)

	checkin := time.Date(2026, 8, 24, 8, 11, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.True(t, outcome.Evaluated)
	require.False(t, outcome.Punctual)
	require.Zero(t, outcome.Streak)
	require.InDelta(t, 1.0, outcome.Multiplier, 0.001)

	stored := reloadWorker(t, d.db, worker.ID)
	require.Zero(t, stored.PunctualityStreak)
	require.InDelta(t, 1.0, stored.PunctualityMultiplier, 0.001)
	require.Zero(t, stored.XPTotal)
}

func TestHandleCheckinConsecutiveDayIncrements(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	yesterday := time.Date(2026, 8, 23, 0, 0, 0, 0, testLoc)
	require.NoError(t, d.db.Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     3,
		"punctuality_multiplier": 1.3,
		"last_punctual_date":     yesterday,
	}).Error)
	worker = reloadWorker(t, d.db, worker.ID)

	checkin := time.Date(2026, 8, 24, 7, 55, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.Equal(t, 4, outcome.Streak)
	require.InDelta(t, 1.4, outcome.Multiplier, 0.001)
}

func TestHandleCheckinGapRestartsStreak(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	lastWeek := time.Date(2026, 8, 18, 0, 0, 0, 0, testLoc)
	require.NoError(t, d.db.Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     9,
		"punctuality_multiplier": 1.9,
		"last_punctual_date":     lastWeek,
	}).Error)
	worker = reloadWorker(t, d.db, worker.ID)

	checkin := time.Date(2026, 8, 24, 8, 2, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.Equal(t, 1, outcome.Streak)
	require.InDelta(t, 1.1, outcome.Multiplier, 0.001)
}

func TestHandleCheckinMultiplierCaps(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	yesterday := time.Date(2026, 8, 23, 0, 0, 0, 0, testLoc)
	require.NoError(t, d.db.Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     45,
		"punctuality_multiplier": 5.0,
		"last_punctual_date":     yesterday,
	}).Error)
	worker = reloadWorker(t, d.db, worker.ID)

	checkin := time.Date(2026, 8, 24, 8, 0, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.Equal(t, 46, outcome.Streak)
	require.InDelta(t, 5.0, outcome.Multiplier, 0.001)
}

func TestHandleCheckinSecondOfDayNotEvaluated(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	morning := time.Date(2026, 8, 24, 8, 0, 0, 0, testLoc)
	lunch := time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, project.ID, morning, lunch, model.CheckoutReasonLunch)

	back := time.Date(2026, 8, 24, 13, 0, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, back)
	require.NoError(t, err)

	require.False(t, outcome.Evaluated)
	require.Zero(t, reloadWorker(t, d.db, worker.ID).XPTotal)
}

func TestHandleCheckinSameDayRepeatIsNoop(t *testing.T) {
	svc, d, worker, project := punctualityFixture(t)
	ctx := context.Background()

	today := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	require.NoError(t, d.db.Model(worker).Updates(map[string]interface{}{
		"punctuality_streak":     2,
		"punctuality_multiplier": 1.2,
		"last_punctual_date":     today,
	}).Error)
	worker = reloadWorker(t, d.db, worker.ID)

	checkin := time.Date(2026, 8, 24, 8, 1, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.True(t, outcome.Evaluated)
	require.True(t, outcome.Punctual)
	require.Equal(t, 2, outcome.Streak)
	require.Zero(t, outcome.XPAwarded)
	require.Zero(t, reloadWorker(t, d.db, worker.ID).XPTotal)
}

func TestHandleCheckinNoScheduleAlwaysPunctual(t *testing.T) {
	svc, d, worker, _ := punctualityFixture(t)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra sem horario", "")

	checkin := time.Date(2026, 8, 24, 14, 30, 0, 0, testLoc)
	outcome, err := svc.HandleCheckin(ctx, worker, project, checkin)
	require.NoError(t, err)

	require.True(t, outcome.Punctual)
	require.Equal(t, 1, outcome.Streak)
}
