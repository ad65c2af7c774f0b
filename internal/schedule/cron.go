package schedule

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CronRunner 按 cron 表达式运行任务，任务错误只记录不向外传播
type CronRunner struct {
	cron *cron.Cron
}

func NewCronRunner() *CronRunner {
	return &CronRunner{
		cron: cron.New(),
	}
}

func (r *CronRunner) Add(ctx context.Context, spec string, task Task) error {
	_, err := r.cron.AddFunc(spec, func() {
		if err := task.Run(ctx); err != nil {
			slog.Error("scheduled task failed", "task", task.Name(), "error", err)
		}
	})
	return err
}

func (r *CronRunner) Start() {
	r.cron.Start()
}

// Stop 停止调度，不等待运行中的任务
func (r *CronRunner) Stop() {
	r.cron.Stop()
}
