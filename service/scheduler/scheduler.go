// Package scheduler runs a job on a cron schedule until the context ends.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled execution. It receives the scheduler's context.
type Job func(ctx context.Context)

type Options struct {
	// RunOnStart executes the job once before waiting for the first tick
	RunOnStart bool
}

// Run blocks until ctx is done. Overlapping executions are skipped, and a
// running job is waited for before Run returns.
func Run(ctx context.Context, schedule string, job Job, logger *logrus.Entry, opts Options) error {
	cronLogger := cronLogrus{entry: logger.WithField("component", "scheduler")}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	id, err := c.AddFunc(schedule, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	var initial sync.WaitGroup
	if opts.RunOnStart {
		// Goes through the chain so a tick during this run is skipped
		wrapped := c.Entry(id).WrappedJob
		initial.Add(1)
		go func() {
			defer initial.Done()
			wrapped.Run()
		}()
	}

	c.Start()
	logger.WithField("schedule", schedule).Infof("Scheduler started, next run at %s", c.Entry(id).Next)

	<-ctx.Done()
	logger.Info("Scheduler stopping, waiting for running job")
	<-c.Stop().Done()
	initial.Wait()
	return nil
}

// cronLogrus adapts a logrus entry to cron.Logger
type cronLogrus struct {
	entry *logrus.Entry
}

func (l cronLogrus) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogrus) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
