package process

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/register"
)

type Process struct {
	cron *cron.Cron
	core *core.Core
}

type ProcessKey struct{}

func NewProcess(core *core.Core) *Process {
	p := &Process{
		cron: cron.New(),
		core: core,
	}

	for _, h := range register.ResolveFuncHandlers[*Process](ProcessKey{}) {
		h(p)
	}

	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Core() *core.Core {
	return p.core
}

func (p *Process) Start() {
	p.cron.Start()
}

// Stop waits for running jobs to finish.
func (p *Process) Stop() context.Context {
	return p.cron.Stop()
}
