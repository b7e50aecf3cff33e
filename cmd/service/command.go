package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tablehub/tablehub/app/core"
	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/logic/v1/process"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/safe"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	// Add flags for generic options
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config, environment variables are used when empty")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "run the tablehub api service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	p := process.NewProcess(app)
	p.Start()

	errCh := make(chan error, 1)
	safe.Go("service.http", func() {
		errCh <- serve(app)
	})

	sigs := make(chan os.Signal, 1)
	// 监听 os.Interrupt (Ctrl+C) 和 syscall.SIGTERM (kill)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		<-p.Stop().Done()
		return err
	case sig := <-sigs:
		slog.Info("service stopping", slog.String("signal", sig.String()))
		<-p.Stop().Done()
		return nil
	}
}

func NewInitCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "create the admin account, standard tables and sample data when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInit(cmd.Context(), opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunInit(ctx context.Context, opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	report, err := v1.NewBootstrapLogic(ctx, app).Run()
	if err != nil {
		return err
	}
	return printJSON(report)
}

type RepairOptions struct {
	Options
	Table string
}

func (o *RepairOptions) AddFlags(flagSet *pflag.FlagSet) {
	o.Options.AddFlags(flagSet)
	flagSet.StringVarP(&o.Table, "table", "t", "", "repair a single table, every catalog record when empty")
}

func NewRepairCommand() *cobra.Command {
	opts := &RepairOptions{}
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "recreate missing physical tables and columns from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunRepair(cmd.Context(), opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunRepair(ctx context.Context, opts *RepairOptions) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if opts.Table == "" {
		return printJSON(process.RepairTables(ctx, app))
	}

	report, err := app.Registry().Repair(ctx, opts.Table)
	if err != nil {
		return err
	}
	app.Metrics().RepairReported(report.Repaired)
	return printJSON([]dyntable.RepairReport{report})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
