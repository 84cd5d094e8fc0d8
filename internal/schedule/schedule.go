package schedule

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler re-analyzes the configured topics on a cron spec, so the
// latest-report endpoint always has fresh data without an explicit
// request.
type Scheduler struct {
	runner *Runner
	topics []string
	cron   *cron.Cron
}

func NewScheduler(runner *Runner, topics []string) *Scheduler {
	return &Scheduler{
		runner: runner,
		topics: topics,
		cron:   cron.New(),
	}
}

// Start registers the job and launches the cron loop. Topic runs are
// sequential within one tick so a slow provider cannot pile up calls.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if spec == "" || len(s.topics) == 0 {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		for _, topic := range s.topics {
			stored, err := s.runner.Run(ctx, topic)
			if err != nil {
				log.Printf("scheduled analysis of %q failed: %v", topic, err)
				continue
			}
			log.Printf("scheduled analysis of %q done: run=%s status=%s overall=%.1f",
				topic, stored.RunID, stored.Report.Status, stored.Report.OverallSentiment)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
