// Package main provides the imej command line, a thin wrapper around the
// template service for previewing layouts outside a host process.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-imej"
	"github.com/goliatone/go-imej/pkg/config"
)

func main() {
	cmd := newRootCmd(newSurveyDriver())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "imej: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. prompts drives the interactive layout
// picker.
func newRootCmd(prompts PromptDriver) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "imej",
		Short:         "Render HTML layouts for image generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", "", "YAML configuration file")
	cmd.PersistentFlags().Bool("verbose", false, "Log service activity to stderr")

	cmd.AddCommand(newRenderCmd(prompts))
	cmd.AddCommand(newLayoutsCmd())
	cmd.AddCommand(newPreludeCmd())
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

// loadConfig reads the --config file when given. Environment overrides apply
// either way.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newService(cmd *cobra.Command, cfg config.Config) (*imej.Service, error) {
	return imej.New(cfg, imej.WithLogger(newLogger(cmd)))
}

// startService loads configuration and returns a started service.
func startService(cmd *cobra.Command) (*imej.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	svc, err := newService(cmd, cfg)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(cmd.Context()); err != nil {
		return nil, err
	}
	return svc, nil
}
