package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldops/internal/model"
	"fieldops/internal/notify"
)

func TestHandleReportSetsMarkerOnce(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, testLoc)
	d, _, clk := newTestDeps(t, start)
	svc := NewGPSService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Tiago", model.RoleAuxiliar)

	offSince, err := svc.HandleReport(ctx, worker, model.LocationDenied, -23.5, -46.6)
	require.NoError(t, err)
	require.NotNil(t, offSince)
	require.Equal(t, start.Unix(), offSince.Unix())

	// A later non-granted report keeps the original marker.
	clk.Advance(30 * time.Second)
	offSince, err = svc.HandleReport(ctx, worker, model.LocationOff, -23.5, -46.6)
	require.NoError(t, err)
	require.NotNil(t, offSince)
	require.Equal(t, start.Unix(), offSince.Unix())

	stored := reloadWorker(t, d.db, worker.ID)
	require.NotNil(t, stored.GPSOffSince)
	require.Equal(t, start.Unix(), stored.GPSOffSince.Unix())
}

func TestHandleReportGrantedClearsMarker(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, testLoc)
	d, _, clk := newTestDeps(t, start)
	svc := NewGPSService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Tiago", model.RoleAuxiliar)

	_, err := svc.HandleReport(ctx, worker, model.LocationOff, -23.5, -46.6)
	require.NoError(t, err)

	clk.Advance(20 * time.Second)
	offSince, err := svc.HandleReport(ctx, worker, model.LocationGranted, -23.5, -46.6)
	require.NoError(t, err)
	require.Nil(t, offSince)
	require.Nil(t, reloadWorker(t, d.db, worker.ID).GPSOffSince)
}

func TestHandleReportUpsertsLatestLocation(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, testLoc)
	d, _, clk := newTestDeps(t, start)
	svc := NewGPSService(d)
	ctx := context.Background()

	worker := createWorker(t, d.db, "Tiago", model.RoleAuxiliar)

	_, err := svc.HandleReport(ctx, worker, model.LocationGranted, -23.50, -46.60)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = svc.HandleReport(ctx, worker, model.LocationGranted, -23.51, -46.61)
	require.NoError(t, err)

	var locations []model.WorkerLocation
	require.NoError(t, d.db.Where("worker_id = ?", worker.ID).Find(&locations).Error)
	require.Len(t, locations, 1)
	require.InDelta(t, -23.51, locations[0].Latitude, 0.0001)
}

func TestScanOfflineForceClosesOpenSession(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 5, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := NewGPSService(d)
	ctx := context.Background()

	project := createProject(t, d.db, "Obra Sul", "07:00")
	worker := createWorker(t, d.db, "Tiago", model.RoleAuxiliar)
	offSince := now.Add(-90 * time.Second)
	require.NoError(t, d.db.Model(worker).Update("gps_off_since", offSince).Error)

	session := createSession(t, d.db, worker.ID, project.ID,
		time.Date(2026, 8, 24, 7, 0, 0, 0, testLoc), nil, nil)

	counts, err := svc.ScanOffline(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Sent)

	var stored model.WorkSession
	require.NoError(t, d.db.First(&stored, session.ID).Error)
	require.NotNil(t, stored.CheckoutAt)
	require.Equal(t, now.Unix(), stored.CheckoutAt.Unix())
	require.NotNil(t, stored.CheckoutReason)
	require.Equal(t, model.CheckoutReasonGPSLost, *stored.CheckoutReason)
	require.True(t, stored.AutoCheckout)

	require.Nil(t, reloadWorker(t, d.db, worker.ID).GPSOffSince)

	pushes := gw.PushesOfKind(notify.KindGPSLossCheckout)
	require.Len(t, pushes, 1)
	require.Equal(t, worker.ID, pushes[0].WorkerID)

	emits := gw.Emits()
	require.Len(t, emits, 1)
	require.Equal(t, fmt.Sprintf("project:%d", project.ID), emits[0].Room)
	require.Equal(t, "session_closed", emits[0].Event)
}

func TestScanOfflineWithoutSessionClearsMarkerOnly(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 5, 0, 0, testLoc)
	d, gw, _ := newTestDeps(t, now)
	svc := NewGPSService(d)

	worker := createWorker(t, d.db, "Tiago", model.RoleAuxiliar)
	require.NoError(t, d.db.Model(worker).Update("gps_off_since", now.Add(-2*time.Minute)).Error)

	counts, err := svc.ScanOffline(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, counts.Processed)
	require.Equal(t, 1, counts.Skipped)

	require.Nil(t, reloadWorker(t, d.db, worker.ID).GPSOffSince)
	require.Empty(t, gw.Pushes())
}

func TestScanOfflineRespectsThreshold(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 5, 0, 0, testLoc)
	d, _, _ := newTestDeps(t, now)
	svc := NewGPSService(d)

	project := createProject(t, d.db, "Obra Sul", "07:00")
	worker := createWorker(t, d.db, "Tiago", model.RoleAuxiliar)
	require.NoError(t, d.db.Model(worker).Update("gps_off_since", now.Add(-30*time.Second)).Error)
	session := createSession(t, d.db, worker.ID, project.ID,
		time.Date(2026, 8, 24, 7, 0, 0, 0, testLoc), nil, nil)

	counts, err := svc.ScanOffline(context.Background())
	require.NoError(t, err)
	require.Zero(t, counts.Processed)

	var stored model.WorkSession
	require.NoError(t, d.db.First(&stored, session.ID).Error)
	require.Nil(t, stored.CheckoutAt)
}
