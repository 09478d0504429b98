package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/gitlab-org/ecr-housekeeping/config"
	"gitlab.com/gitlab-org/ecr-housekeeping/flags"
	"gitlab.com/gitlab-org/ecr-housekeeping/registry"
	"gitlab.com/gitlab-org/ecr-housekeeping/repositories"
	"gitlab.com/gitlab-org/ecr-housekeeping/schedule"
)

const (
	exitOK = iota
	exitFailures
	exitConfig
)

var errRepositoriesFailed = errors.New("housekeeping failed")

type app struct {
	stdout    io.Writer
	newClient func(registry.SessionOptions) (registry.Client, error)
}

func newECRClient(opts registry.SessionOptions) (registry.Client, error) {
	return registry.NewECRFromOptions(opts)
}

func (a *app) command() *cobra.Command {
	var opts *flags.Options

	cmd := &cobra.Command{
		Use:   "ecr-housekeeping",
		Short: "Remove ECR image(s), just keep number latest push and/or images pushed in last x days.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &flags.ConfigError{Err: err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(opts, cmd.Flags()); err != nil {
				return err
			}
			return a.run(cmd.Context(), opts)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &flags.ConfigError{Err: err}
	})

	opts = flags.Register(cmd.Flags())
	return cmd
}

func (a *app) configure(opts *flags.Options, fs *pflag.FlagSet) error {
	if opts.Config != "" {
		file, err := config.Load(opts.Config)
		if err != nil {
			return &flags.ConfigError{Err: err}
		}
		opts.Merge(file, fs)
	}

	if err := opts.Validate(); err != nil {
		return err
	}

	opts.ConfigureLogging()
	return nil
}

func (a *app) run(ctx context.Context, opts *flags.Options) error {
	client, err := a.newClient(opts.SessionOptions())
	if err != nil {
		return err
	}

	cleaner := repositories.NewCleaner(client, opts.Policy(), a.stdout)
	list := repositories.NewList(client, opts.SkipRepos)

	pass := func(ctx context.Context) error {
		logrus.Infoln("Cleaning REPOSITORIES...", "keep-latest:", opts.KeepLatest, "keep-day:", opts.KeepDays, "skip:", opts.SkipRepos)

		summary := cleaner.Run(ctx, list)
		summary.Print(a.stdout)
		summary.Stats.Info()

		if summary.Failed() {
			return fmt.Errorf("%w: %w", errRepositoriesFailed, summary.Err())
		}
		return nil
	}

	if opts.Schedule == "" {
		return pass(ctx)
	}

	return schedule.Run(ctx, opts.Schedule, func(ctx context.Context) {
		if err := pass(ctx); err != nil {
			logrus.Errorln(err)
		}
	})
}

func exitCode(err error) int {
	var configErr *flags.ConfigError

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &configErr):
		return exitConfig
	default:
		return exitFailures
	}
}

func execute(ctx context.Context, a *app, args []string) int {
	cmd := a.command()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		logrus.Errorln(err)
	}
	return exitCode(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{stdout: os.Stdout, newClient: newECRClient}
	code := execute(ctx, a, os.Args[1:])

	stop()
	os.Exit(code)
}
