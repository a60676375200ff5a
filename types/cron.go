package types

import (
	"time"

	"github.com/robfig/cron/v3"
)

type CronManager interface {
	LifecycleManager
	Add(jobName, spec string, job func()) error
}

type JobEntry struct {
	ID       cron.EntryID
	Name     string
	Spec     string
	AddedAt  time.Time
	LastRun  time.Time
	RunCount int64
	// LastError is the panic message of the latest run, empty after a
	// successful one.
	LastError string
}
