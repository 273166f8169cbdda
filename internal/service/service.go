// Package service implements the attendance rules engine: the
// user-facing session paths and the periodic reconciliation scans that
// share the same store.
package service

import (
	"time"

	"gorm.io/gorm"

	"fieldops/config"
	"fieldops/internal/notify"
	"fieldops/internal/queue"
	"fieldops/storage/database"
)

// ScanCounts is returned by every scheduler scan entry point so manual
// triggers can report what one tick did.
type ScanCounts struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// deps bundles what every service needs. Production singletons read the
// globals; tests construct services with their own deps.
type deps struct {
	db  *gorm.DB
	gw  notify.Gateway
	loc *time.Location
	now func() time.Time
}

func defaultDeps() deps {
	return deps{
		db:  database.DB(),
		gw:  queue.Gateway{},
		loc: config.Cfg.Location(),
		now: time.Now,
	}
}
