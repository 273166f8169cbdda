package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
	"fieldops/internal/model/dto"
	"fieldops/internal/notify"
	"fieldops/pkg/civil"
	apperrors "fieldops/pkg/errors"
)

func seededReportService(d deps, seed int64) *ReportService {
	return NewReportServiceWithRand(d, rand.New(rand.NewSource(seed)))
}

func TestAssignResponsibilitiesPicksHighestRank(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	aux := createWorker(t, d.db, "Aux", model.RoleAuxiliar)
	apl := createWorker(t, d.db, "Apl", model.RoleAplicadorIII)
	lider := createWorker(t, d.db, "Lider", model.RoleLider)
	for _, w := range []*model.Worker{aux, apl, lider} {
		assignWorker(t, d.db, project, w)
	}

	counts, err := svc.AssignResponsibilities(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Sent)

	var responsibility model.DailyReportResponsibility
	require.NoError(t, d.db.Where("project_id = ?", project.ID).First(&responsibility).Error)
	require.Equal(t, lider.ID, responsibility.WorkerID)
	require.Equal(t, lider.ID, responsibility.OriginalWorkerID)
	require.Equal(t, model.ResponsibilityPending, responsibility.Status)

	pushes := gw.PushesOfKind(notify.KindReportAssigned)
	require.Len(t, pushes, 1)
	require.Equal(t, lider.ID, pushes[0].WorkerID)

	// Second run on the same day changes nothing.
	counts, err = svc.AssignResponsibilities(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Skipped)
	require.Zero(t, counts.Sent)

	var rows int64
	require.NoError(t, d.db.Model(&model.DailyReportResponsibility{}).Count(&rows).Error)
	require.EqualValues(t, 1, rows)
}

func TestAssignResponsibilitiesTieBreaksRandomly(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, testLoc)
	d, _, clk := newTestDeps(t, now)
	svc := seededReportService(d, 7)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	first := createWorker(t, d.db, "Lider A", model.RoleLider)
	second := createWorker(t, d.db, "Lider B", model.RoleLider)
	assignWorker(t, d.db, project, first)
	assignWorker(t, d.db, project, second)

	picks := map[int64]int{}
	for i := 0; i < 100; i++ {
		_, err := svc.AssignResponsibilities(ctx)
		require.NoError(t, err)

		var responsibility model.DailyReportResponsibility
		today := civil.Date(clk.Now(), testLoc)
		require.NoError(t, d.db.Where("project_id = ? AND report_date = ?", project.ID, today).
			First(&responsibility).Error)
		picks[responsibility.WorkerID]++

		clk.Advance(24 * time.Hour)
	}

	require.Equal(t, 100, picks[first.ID]+picks[second.ID])
	require.Greater(t, picks[first.ID], 25)
	require.Greater(t, picks[second.ID], 25)
}

func TestAssignResponsibilitiesSkipsEmptyTeam(t *testing.T) {
	now := time.Date(2026, 8, 24, 6, 0, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)

	createProject(t, d.db, "Obra Vazia", "07:00")

	counts, err := svc.AssignResponsibilities(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Skipped)
}

func TestTransferValidatesTarget(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	holder := createWorker(t, d.db, "Holder", model.RoleLider)
	mate := createWorker(t, d.db, "Mate", model.RoleAplicadorI)
	outsider := createWorker(t, d.db, "Outsider", model.RoleLider)
	assignWorker(t, d.db, project, holder)
	assignWorker(t, d.db, project, mate)

	responsibility := model.DailyReportResponsibility{
		ProjectID:        project.ID,
		ReportDate:       civil.Date(now, testLoc),
		WorkerID:         holder.ID,
		OriginalWorkerID: holder.ID,
		Status:           model.ResponsibilityPending,
	}
	require.NoError(t, d.db.Create(&responsibility).Error)

	_, err := svc.Transfer(ctx, 9999, dto.TransferResponsibilityRequest{ToWorkerID: mate.ID, Reason: "x"})
	require.ErrorIs(t, err, apperrors.ResponsibilityNotFound)

	_, err = svc.Transfer(ctx, responsibility.ID, dto.TransferResponsibilityRequest{ToWorkerID: holder.ID, Reason: "x"})
	require.ErrorIs(t, err, apperrors.TransferTargetInvalid)

	_, err = svc.Transfer(ctx, responsibility.ID, dto.TransferResponsibilityRequest{ToWorkerID: outsider.ID, Reason: "x"})
	require.ErrorIs(t, err, apperrors.TransferTargetInvalid)

	item, err := svc.Transfer(ctx, responsibility.ID, dto.TransferResponsibilityRequest{
		ToWorkerID: mate.ID,
		Reason:     "leaving early",
	})
	require.NoError(t, err)
	require.Equal(t, mate.ID, item.WorkerID)
	require.Equal(t, holder.ID, item.OriginalWorkerID)
	require.Equal(t, string(model.ResponsibilityTransferred), item.Status)
	require.Equal(t, "leaving early", item.TransferReason)
	require.NotNil(t, item.TransferredAt)
	require.Equal(t, now.Unix(), item.TransferredAt.Unix())

	pushes := gw.PushesOfKind(notify.KindReportTransferred)
	require.Len(t, pushes, 1)
	require.Equal(t, mate.ID, pushes[0].WorkerID)

	// A completed duty cannot move anymore.
	require.NoError(t, d.db.Model(&model.DailyReportResponsibility{}).
		Where("id = ?", responsibility.ID).
		Update("status", model.ResponsibilityCompleted).Error)
	_, err = svc.Transfer(ctx, responsibility.ID, dto.TransferResponsibilityRequest{ToWorkerID: holder.ID, Reason: "x"})
	require.ErrorIs(t, err, apperrors.ReportDuplicate)
}

func TestSubmitResolvesDutyAndCancelsReminders(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 0, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	worker := createWorker(t, d.db, "Lider", model.RoleLider)
	assignWorker(t, d.db, project, worker)

	today := civil.Date(now, testLoc)
	require.NoError(t, d.db.Create(&model.DailyReportResponsibility{
		ProjectID:        project.ID,
		ReportDate:       today,
		WorkerID:         worker.ID,
		OriginalWorkerID: worker.ID,
		Status:           model.ResponsibilityPending,
	}).Error)
	for i := 0; i < 2; i++ {
		require.NoError(t, d.db.Create(&model.ReportReminder{
			WorkerID:   worker.ID,
			ProjectID:  project.ID,
			SessionID:  int64(i + 1),
			NextFireAt: now.Add(time.Duration(i+1) * time.Hour),
			Status:     model.ReminderPending,
		}).Error)
	}

	resp, err := svc.Submit(ctx, dto.SubmitReportRequest{
		WorkerID:  worker.ID,
		ProjectID: project.ID,
		Content:   "floor prepped, primer applied",
	})
	require.NoError(t, err)
	require.True(t, resp.ResponsibilityResolved)
	require.EqualValues(t, 2, resp.CancelledReminders)

	var responsibility model.DailyReportResponsibility
	require.NoError(t, d.db.Where("project_id = ?", project.ID).First(&responsibility).Error)
	require.Equal(t, model.ResponsibilityCompleted, responsibility.Status)
	require.NotNil(t, responsibility.CompletedAt)

	var pendingReminders int64
	require.NoError(t, d.db.Model(&model.ReportReminder{}).
		Where("status = ?", model.ReminderPending).Count(&pendingReminders).Error)
	require.Zero(t, pendingReminders)

	// Same worker, same day: duplicate.
	_, err = svc.Submit(ctx, dto.SubmitReportRequest{
		WorkerID:  worker.ID,
		ProjectID: project.ID,
		Content:   "again",
	})
	require.ErrorIs(t, err, apperrors.ReportDuplicate)
}

func TestScheduleReminderQueuesInitialDelay(t *testing.T) {
	now := time.Date(2026, 8, 24, 17, 0, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)

	project := createProject(t, d.db, "Obra Norte", "07:00")
	worker := createWorker(t, d.db, "Lider", model.RoleLider)
	session := closedSession(t, d.db, worker.ID, project.ID,
		now.Add(-9*time.Hour), now, model.CheckoutReasonEndOfShift)

	require.NoError(t, svc.ScheduleReminder(context.Background(), session))

	var reminder model.ReportReminder
	require.NoError(t, d.db.Where("session_id = ?", session.ID).First(&reminder).Error)
	require.Equal(t, model.ReminderPending, reminder.Status)
	require.Zero(t, reminder.Attempts)
	require.Equal(t, now.Add(60*time.Minute).Unix(), reminder.NextFireAt.Unix())

	scans := gw.Scans()
	require.Len(t, scans, 1)
	require.Equal(t, "report_reminders", scans[0].Job)
	require.Equal(t, ReminderInitialDelay, scans[0].Delay)
}

func TestScanRemindersEscalatesThenExpires(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 0, 0, 0, testLoc)
	d, gw, clk := newTestDeps(t, now)
	svc := seededReportService(d, 1)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	lider := createWorker(t, d.db, "Lider", model.RoleLider)
	mate := createWorker(t, d.db, "Mate", model.RoleAuxiliar)
	assignWorker(t, d.db, project, lider)
	assignWorker(t, d.db, project, mate)
	require.NoError(t, d.db.Model(&model.Worker{}).
		Where("id IN ?", []int64{lider.ID, mate.ID}).
		Update("xp_total", 10000).Error)

	reminder := model.ReportReminder{
		BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
		WorkerID:   lider.ID,
		ProjectID:  project.ID,
		SessionID:  1,
		NextFireAt: now,
		Status:     model.ReminderPending,
	}
	require.NoError(t, d.db.Create(&reminder).Error)

	// Three escalations, thirty minutes apart.
	for attempt := 1; attempt <= 3; attempt++ {
		counts, err := svc.ScanReminders(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, counts.Processed)
		require.Equal(t, 1, counts.Sent)

		var stored model.ReportReminder
		require.NoError(t, d.db.First(&stored, reminder.ID).Error)
		require.Equal(t, attempt, stored.Attempts)
		require.Equal(t, clk.Now().Add(30*time.Minute).Unix(), stored.NextFireAt.Unix())

		clk.Advance(30 * time.Minute)
	}
	require.Len(t, gw.PushesOfKind(notify.KindReportReminder), 3)

	// Fourth due tick: attempts exhausted, the whole team pays.
	counts, err := svc.ScanReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Expired)

	var stored model.ReportReminder
	require.NoError(t, d.db.First(&stored, reminder.ID).Error)
	require.Equal(t, model.ReminderExpired, stored.Status)

	require.EqualValues(t, 3000, reloadWorker(t, d.db, lider.ID).XPTotal)
	require.EqualValues(t, 3000, reloadWorker(t, d.db, mate.ID).XPTotal)
	require.Len(t, gw.PushesOfKind(notify.KindReportExpiredPenalty), 2)

	// Expired reminders never fire again.
	clk.Advance(time.Hour)
	counts, err = svc.ScanReminders(ctx)
	require.NoError(t, err)
	require.Zero(t, counts.Processed)
}

func TestScanRemindersCancelledBySubmittedReport(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 0, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	worker := createWorker(t, d.db, "Lider", model.RoleLider)
	assignWorker(t, d.db, project, worker)

	today := civil.Date(now, testLoc)
	require.NoError(t, d.db.Create(&model.Report{
		ProjectID:  project.ID,
		ReportDate: today,
		WorkerID:   worker.ID,
		Content:    "done",
	}).Error)

	reminder := model.ReportReminder{
		BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
		WorkerID:   worker.ID,
		ProjectID:  project.ID,
		SessionID:  1,
		NextFireAt: now,
		Status:     model.ReminderPending,
	}
	require.NoError(t, d.db.Create(&reminder).Error)

	counts, err := svc.ScanReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Skipped)

	var stored model.ReportReminder
	require.NoError(t, d.db.First(&stored, reminder.ID).Error)
	require.Equal(t, model.ReminderCancelled, stored.Status)
	require.Empty(t, gw.PushesOfKind(notify.KindReportReminder))
}

func TestTodayResponsibility(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, now)
	svc := seededReportService(d, 1)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Norte", "07:00")
	worker := createWorker(t, d.db, "Lider", model.RoleLider)

	_, err := svc.TodayResponsibility(ctx, project.ID)
	require.ErrorIs(t, err, apperrors.ResponsibilityNotFound)

	require.NoError(t, d.db.Create(&model.DailyReportResponsibility{
		ProjectID:        project.ID,
		ReportDate:       civil.Date(now, testLoc),
		WorkerID:         worker.ID,
		OriginalWorkerID: worker.ID,
		Status:           model.ResponsibilityPending,
	}).Error)

	item, err := svc.TodayResponsibility(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, worker.ID, item.WorkerID)
	require.Equal(t, "2026-08-24", item.ReportDate)
}
