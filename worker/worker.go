package worker

import (
	"github.com/robfig/cron/v3"
)

// IJob a scheduled job
type IJob interface {
	Start() error
	Run()
	Stop() error
}

// OnWork job body
type OnWork func() error

// BaseJob cron-driven job that skips a tick while the previous one is
// still running
type BaseJob struct {
	Cron      *cron.Cron
	IsRunning bool
	OnWork    OnWork
}

// Start start the cron
func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

// Stop stop the cron
func (job *BaseJob) Stop() error {
	job.Cron.Stop()
	return nil
}

// Run run one tick
func (job *BaseJob) Run() {
	if job.IsRunning {
		return
	}

	job.IsRunning = true
	job.OnWork()
	job.IsRunning = false
}
