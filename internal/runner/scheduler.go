package runner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job: периодическая задача раннера.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler: cron с секундами; запуск задачи пропускается, пока не закончился предыдущий.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
	ctx  context.Context
}

func NewScheduler(ctx context.Context, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With(zap.String("component", "scheduler")),
		ctx:  ctx,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("[SCHED] started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("[SCHED] stopped")
}

// AddJob: "*/5 * * * * *" каждые 5 секунд, "@every 1s" и т.п.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if s.ctx.Err() != nil {
			return
		}
		if err := job.Run(s.ctx); err != nil {
			s.log.Error("[SCHED] job failed", zap.String("job", job.Name()), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("[SCHED] job registered", zap.String("schedule", schedule), zap.String("job", job.Name()))
	return nil
}

type jobFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (j jobFunc) Name() string                  { return j.name }
func (j jobFunc) Run(ctx context.Context) error { return j.fn(ctx) }

// exitJob: тик exit-воркера.
func exitJob(w *ExitWorker) Job {
	return jobFunc{name: "exit-monitor", fn: func(ctx context.Context) error {
		w.Tick(ctx)
		return nil
	}}
}
