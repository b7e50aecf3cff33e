package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/safe"
)

const repairTimeout = 5 * time.Minute

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		spec := p.Core().Cfg().Tables.RepairCron
		if spec == "" {
			return
		}
		if _, err := p.Cron().AddFunc(spec, func() {
			safe.RunWithLog(func() {
				ctx, cancel := context.WithTimeout(context.Background(), repairTimeout)
				defer cancel()
				RepairTables(ctx, p.Core())
			}, "process.repair")
		}); err != nil {
			panic(err)
		}
		slog.Info("table repair job scheduled", slog.String("component", "process.repair"), slog.String("spec", spec))
	})
}

// RepairTables runs one repair pass over the whole catalog unless another node holds the lock.
func RepairTables(ctx context.Context, core *core.Core) []dyntable.RepairReport {
	lock := core.Locks().Repair()
	if !lock.TryAcquire(ctx) {
		slog.Debug("table repair skipped, lock is held elsewhere", slog.String("component", "process.repair"))
		return nil
	}
	defer lock.Release(ctx)

	start := time.Now()
	reports, err := core.Registry().RepairAll(ctx)
	if err != nil {
		slog.Error("table repair failed", slog.String("component", "process.repair"), slog.String("error", err.Error()))
		return nil
	}
	for _, r := range reports {
		core.Metrics().RepairReported(r.Repaired)
		slog.Warn("table repaired", slog.String("component", "process.repair"),
			slog.String("table", r.Table), slog.Bool("repaired", r.Repaired), slog.Any("problems", r.Problems))
	}
	core.Metrics().SetCachedHandles(core.Registry().Len())
	slog.Info("table repair pass finished", slog.String("component", "process.repair"),
		slog.Int("reports", len(reports)), slog.Duration("took", time.Since(start)))
	return reports
}
