package process

import (
	"log/slog"

	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/safe"
)

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		if p.Core().Redis() != nil {
			return
		}
		// 进程内缓存需要定期清理过期的注销记录
		if _, err := p.Cron().AddFunc("@every 10m", func() {
			safe.RunWithLog(func() {
				if n := p.Core().SweepCache(); n > 0 {
					slog.Debug("expired cache entries removed", slog.String("component", "process.cache_sweep"), slog.Int("count", n))
				}
			}, "process.cache_sweep")
		}); err != nil {
			panic(err)
		}
	})
}
