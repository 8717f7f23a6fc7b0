package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-imej"
	"github.com/goliatone/go-imej/pkg/config"
)

func newRenderCmd(prompts PromptDriver) *cobra.Command {
	var (
		layout      string
		slotsPath   string
		sets        []string
		outputPath  string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a layout to HTML",
		Long: `Render a layout with slots read from a JSON or YAML file and --set pairs.

Without --layout the default layout is used, unless --interactive is given,
in which case the layout is picked from a list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := startService(cmd)
			if err != nil {
				return err
			}

			slots, err := readSlots(cmd.InOrStdin(), slotsPath)
			if err != nil {
				return err
			}
			for _, pair := range sets {
				key, value, ok := strings.Cut(pair, "=")
				key = strings.TrimSpace(key)
				if !ok || key == "" {
					return fmt.Errorf("imej: invalid --set %q, want key=value", pair)
				}
				slots[key] = value
			}

			layout = strings.TrimSpace(layout)
			if layout == "" && interactive {
				layout, err = pickLayout(cmd, prompts, svc)
				if err != nil {
					return err
				}
			}
			if layout == "" {
				layout = config.DefaultLayout
			}

			out, err := svc.Render(layout, slots)
			if err != nil {
				return err
			}
			if outputPath == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}
			if err := atomic.WriteFile(outputPath, strings.NewReader(out)); err != nil {
				return fmt.Errorf("imej: write %s: %w", outputPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Rendered %s to %s\n", svc.Resolve(layout), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&layout, "layout", "l", "", "Layout to render")
	cmd.Flags().StringVar(&slotsPath, "slots", "", "JSON or YAML file with slot values (- for stdin)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Slot value as key=value (repeatable)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Pick the layout from a prompt")

	return cmd
}

// pickLayout offers every layout alias followed by the registered templates,
// preselecting the default layout.
func pickLayout(cmd *cobra.Command, prompts PromptDriver, svc *imej.Service) (string, error) {
	options := layoutOptions(svc)
	idx, err := prompts.Select(cmd.Context(), SelectConfig{
		Message:      "Layout:",
		Options:      options,
		DefaultIndex: indexOf(options, config.DefaultLayout),
		Help:         "Aliases resolve through the layout map, template names render directly.",
		PageSize:     10,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return "", fmt.Errorf("imej: layout selection %d out of range", idx)
	}
	return options[idx], nil
}

func layoutOptions(svc *imej.Service) []string {
	layouts := svc.Layouts()
	aliases := make([]string, 0, len(layouts))
	for alias := range layouts {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	seen := make(map[string]struct{}, len(aliases))
	options := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		seen[alias] = struct{}{}
		options = append(options, alias)
	}
	for _, name := range svc.Templates() {
		if _, ok := seen[name]; ok {
			continue
		}
		options = append(options, name)
	}
	return options
}

// readSlots decodes a slot document. JSON is tried first, then YAML.
func readSlots(stdin io.Reader, path string) (map[string]any, error) {
	slots := map[string]any{}
	path = strings.TrimSpace(path)
	if path == "" {
		return slots, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("imej: read slots: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return slots, nil
	}

	if err := json.Unmarshal(data, &slots); err == nil {
		return slots, nil
	}
	slots = map[string]any{}
	if err := yaml.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("imej: decode slots %s: %w", path, err)
	}
	return slots, nil
}
