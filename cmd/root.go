package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/staffplan/app"
	"github.com/kilianp07/staffplan/config"
	"github.com/kilianp07/staffplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "staffplan",
	Short:         "Weekly staff planning with review and approval",
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, lets adjust tweak it and runs fn
// with a started Service until it returns or the process is interrupted.
func withService(adjust func(*config.Config) []app.Option, fn func(context.Context, *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var opts []app.Option
	if adjust != nil {
		opts = adjust(cfg)
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)
	return fn(ctx, svc)
}
