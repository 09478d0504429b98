package schedule

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Parse accepts standard five-field cron expressions and descriptors such as
// "@daily" or "@every 6h".
func Parse(spec string) (cron.Schedule, error) {
	return cron.ParseStandard(spec)
}

// Run calls job on every activation of spec until ctx is cancelled, then
// waits for a running job to return. An activation that fires while the
// previous job is still running is skipped.
func Run(ctx context.Context, spec string, job func(ctx context.Context)) error {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return err
	}

	c.Start()
	for _, entry := range c.Entries() {
		logrus.Infoln("SCHEDULE:", spec, ": next run at", entry.Next)
	}

	<-ctx.Done()
	logrus.Infoln("SCHEDULE: stopping...")
	<-c.Stop().Done()
	return nil
}
