package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
	"fieldops/internal/notify"
	redisstore "fieldops/storage/redis"
)

func setupTestRedis(t *testing.T) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redisstore.SetClient(client)
	t.Cleanup(func() { _ = client.Close() })
}

func TestScheduleAlertsCreatesEscalationLadder(t *testing.T) {
	d, gw, _ := newTestDeps(t, time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc))
	svc := NewLunchService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Denis", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Oeste", "07:00")

	checkout := time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc)
	session := closedSession(t, d.db, worker.ID, project.ID,
		checkout.Add(-5*time.Hour), checkout, model.CheckoutReasonLunch)

	require.NoError(t, svc.ScheduleAlerts(ctx, session))

	var alerts []model.LunchBreakAlert
	require.NoError(t, d.db.Where("session_id = ?", session.ID).Order("sequence ASC").Find(&alerts).Error)
	require.Len(t, alerts, 3)
	require.Equal(t, checkout.Add(70*time.Minute).Unix(), alerts[0].FireAt.Unix())
	require.Equal(t, checkout.Add(80*time.Minute).Unix(), alerts[1].FireAt.Unix())
	require.Equal(t, checkout.Add(90*time.Minute).Unix(), alerts[2].FireAt.Unix())

	// One delayed scan trigger per rung, so a due alert fires without
	// waiting on the poller.
	scans := gw.Scans()
	require.Len(t, scans, 3)
	for i, offset := range []int{70, 80, 90} {
		require.Equal(t, "lunch_alerts", scans[i].Job)
		require.Equal(t, time.Duration(offset)*time.Minute, scans[i].Delay)
	}
}

func TestScheduleAlertsRejectsOpenSession(t *testing.T) {
	d, _, _ := newTestDeps(t, time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc))
	svc := NewLunchService(d)

	worker := createWorker(t, d.db, "Denis", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Oeste", "07:00")
	session := createSession(t, d.db, worker.ID, project.ID,
		time.Date(2026, 8, 24, 7, 0, 0, 0, testLoc), nil, nil)

	require.Error(t, svc.ScheduleAlerts(context.Background(), session))
}

func TestScanAlertsFiresDueAndSkipsFuture(t *testing.T) {
	checkout := time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc)
	d, gw, clk := newTestDeps(t, checkout)
	svc := NewLunchService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Denis", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Oeste", "07:00")
	session := closedSession(t, d.db, worker.ID, project.ID,
		checkout.Add(-5*time.Hour), checkout, model.CheckoutReasonLunch)
	require.NoError(t, svc.ScheduleAlerts(ctx, session))

	// 75 minutes out: only the first alert is due.
	clk.Set(checkout.Add(75 * time.Minute))

	counts, err := svc.ScanAlerts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Sent)

	pushes := gw.PushesOfKind(notify.KindLunchReturnAlert)
	require.Len(t, pushes, 1)
	require.Equal(t, worker.ID, pushes[0].WorkerID)
	require.EqualValues(t, 75, pushes[0].Data["minutes_out"])

	// Second scan: the fired alert is sent, the rest still future.
	counts, err = svc.ScanAlerts(ctx)
	require.NoError(t, err)
	require.Zero(t, counts.Processed)
}

func TestScanAlertsCancelsWhenWorkerReturned(t *testing.T) {
	checkout := time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc)
	d, gw, clk := newTestDeps(t, checkout)
	svc := NewLunchService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Denis", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Oeste", "07:00")
	session := closedSession(t, d.db, worker.ID, project.ID,
		checkout.Add(-5*time.Hour), checkout, model.CheckoutReasonLunch)
	require.NoError(t, svc.ScheduleAlerts(ctx, session))

	// The worker checked back in after the lunch checkout, racing the
	// scan. The fresh read wins and the pending alerts are dropped.
	createSession(t, d.db, worker.ID, project.ID, checkout.Add(65*time.Minute), nil, nil)

	clk.Set(checkout.Add(75 * time.Minute))

	counts, err := svc.ScanAlerts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Skipped)
	require.Zero(t, counts.Sent)
	require.Empty(t, gw.PushesOfKind(notify.KindLunchReturnAlert))

	var remaining int64
	require.NoError(t, d.db.Model(&model.LunchBreakAlert{}).
		Where("session_id = ?", session.ID).Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestCancelAlertsForWorkerOnReturnCheckin(t *testing.T) {
	checkout := time.Date(2026, 8, 24, 12, 0, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, checkout)
	svc := NewLunchService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Denis", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Oeste", "07:00")
	session := closedSession(t, d.db, worker.ID, project.ID,
		checkout.Add(-5*time.Hour), checkout, model.CheckoutReasonLunch)
	require.NoError(t, svc.ScheduleAlerts(ctx, session))

	cancelled, err := svc.CancelAlertsForWorker(ctx, worker.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, cancelled)
}

func TestScanShortfallsDeductsAndPenalizesOnce(t *testing.T) {
	setupTestRedis(t)

	// Runs the morning after: the target day is yesterday.
	now := time.Date(2026, 8, 25, 6, 0, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := NewLunchService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Carla", model.RoleAplicadorI)
	project := createProject(t, d.db, "Obra Norte", "07:00")

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(7*time.Hour), day.Add(12*time.Hour), model.CheckoutReasonLunch)
	last := closedSession(t, d.db, worker.ID, project.ID,
		day.Add(12*time.Hour).Add(10*time.Minute), day.Add(14*time.Hour).Add(20*time.Minute), model.CheckoutReasonEndOfShift)

	counts, err := svc.ScanShortfalls(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Sent)

	// 430 worked minutes with a 10 minute break against a 60 minute
	// requirement: 50 minutes come off the last checkout.
	var stored model.WorkSession
	require.NoError(t, d.db.First(&stored, last.ID).Error)
	require.Equal(t, day.Add(13*time.Hour).Add(30*time.Minute).Unix(), stored.CheckoutAt.Unix())
	require.False(t, stored.AutoCheckout)

	require.Zero(t, reloadWorker(t, d.db, worker.ID).XPTotal) // clamped at zero

	var ledger model.XPTransaction
	require.NoError(t, d.db.Where("worker_id = ?", worker.ID).First(&ledger).Error)
	require.EqualValues(t, -500, ledger.Amount)
	require.Equal(t, model.XPReasonLunchShortfall, ledger.Reason)

	pushes := gw.PushesOfKind(notify.KindLunchShortfall)
	require.Len(t, pushes, 1)
	require.EqualValues(t, 50, pushes[0].Data["deduction_minutes"])

	// Re-running the scan must not double-deduct.
	counts, err = svc.ScanShortfalls(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Skipped)
	require.Zero(t, counts.Sent)

	require.NoError(t, d.db.First(&stored, last.ID).Error)
	require.Equal(t, day.Add(13*time.Hour).Add(30*time.Minute).Unix(), stored.CheckoutAt.Unix())
}

func TestScanShortfallsReaggregatesSummary(t *testing.T) {
	setupTestRedis(t)

	now := time.Date(2026, 8, 25, 6, 0, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, now)
	svc := NewLunchService(d)
	worktime := NewWorktimeService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Bia", model.RoleAplicadorI)
	project := createProject(t, d.db, "Obra Norte", "07:00")

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(7*time.Hour), day.Add(12*time.Hour), model.CheckoutReasonLunch)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(12*time.Hour).Add(10*time.Minute), day.Add(14*time.Hour).Add(20*time.Minute), model.CheckoutReasonEndOfShift)

	// The nightly aggregation ran before the shortfall scan and saw the
	// original checkout.
	before, err := worktime.AggregateDay(ctx, worker.ID, day)
	require.NoError(t, err)
	require.Equal(t, 130, before.NormalMinutes)

	counts, err := svc.ScanShortfalls(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Sent)

	// The deducted 50 minutes must reach the persisted summary, not just
	// the session row.
	after, err := worktime.Summary(ctx, worker.ID, day)
	require.NoError(t, err)
	require.NotNil(t, after)
	require.Equal(t, 80, after.NormalMinutes)

	var rows int64
	require.NoError(t, d.db.Model(&model.DailyWorkSummary{}).
		Where("worker_id = ?", worker.ID).Count(&rows).Error)
	require.EqualValues(t, 1, rows)
}

func TestScanShortfallsSufficientBreakSkips(t *testing.T) {
	setupTestRedis(t)

	now := time.Date(2026, 8, 25, 6, 0, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := NewLunchService(d)

	worker := createWorker(t, d.db, "Jonas", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Norte", "07:00")

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(7*time.Hour), day.Add(12*time.Hour), model.CheckoutReasonLunch)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(13*time.Hour), day.Add(17*time.Hour), model.CheckoutReasonEndOfShift)

	counts, err := svc.ScanShortfalls(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Skipped)
	require.Empty(t, gw.PushesOfKind(notify.KindLunchShortfall))
}

func TestScanShortfallsNeverInvertsSession(t *testing.T) {
	setupTestRedis(t)

	now := time.Date(2026, 8, 25, 6, 0, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, now)
	svc := NewLunchService(d)

	worker := createWorker(t, d.db, "Igor", model.RoleAuxiliar)
	project := createProject(t, d.db, "Obra Norte", "07:00")

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, testLoc)
	closedSession(t, d.db, worker.ID, project.ID,
		day.Add(7*time.Hour), day.Add(13*time.Hour), model.CheckoutReasonLunch)
	last := closedSession(t, d.db, worker.ID, project.ID,
		day.Add(13*time.Hour).Add(5*time.Minute), day.Add(13*time.Hour).Add(30*time.Minute), model.CheckoutReasonEndOfShift)

	counts, err := svc.ScanShortfalls(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Failed)

	// The 55 minute deduction would land before the check-in, so the
	// session must stay untouched and no XP moves.
	var stored model.WorkSession
	require.NoError(t, d.db.First(&stored, last.ID).Error)
	require.Equal(t, day.Add(13*time.Hour).Add(30*time.Minute).Unix(), stored.CheckoutAt.Unix())

	var entries int64
	require.NoError(t, d.db.Model(&model.XPTransaction{}).Where("worker_id = ?", worker.ID).Count(&entries).Error)
	require.Zero(t, entries)
}
