package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-imej/pkg/config"
)

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List layout aliases and registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := startService(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			layouts := svc.Layouts()
			aliases := make([]string, 0, len(layouts))
			for alias := range layouts {
				aliases = append(aliases, alias)
			}
			sort.Strings(aliases)

			fmt.Fprintln(out, "Layouts:")
			for _, alias := range aliases {
				fmt.Fprintf(out, "  %s -> %s\n", alias, layouts[alias])
			}
			fmt.Fprintln(out, "Templates:")
			for _, name := range svc.Templates() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newPreludeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prelude",
		Short: "Print the stylesheet references injected into every render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := newService(cmd, cfg)
			if err != nil {
				return err
			}

			p := svc.Prelude()
			for _, key := range p.Keys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, p[key])
			}
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
