package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"attune/internal/source"
)

func newSourcesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage scanned directories and their sync configuration",
	}

	cmd.AddCommand(newSourcesListCommand(a), newSourcesAddCommand(a), newSourcesRemoveCommand(a))
	return cmd
}

func newSourcesListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := a.sources.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Println("no directories configured")
				return nil
			}

			for _, src := range sources {
				fmt.Printf("%s\n  primary=%s secondary=%s conflicts=%s\n",
					src.Path, src.Primary, src.Secondary, src.Policy)
			}
			return nil
		},
	}
}

func newSourcesAddCommand(a *app) *cobra.Command {
	var (
		primary   string
		secondary string
		policy    string
	)

	cmd := &cobra.Command{
		Use:   "add <directory>",
		Short: "Add or reconfigure a scanned directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			src := source.Default()
			src.Path = path

			if src.Primary, err = parseSourceType(primary); err != nil {
				return err
			}
			if src.Secondary, err = parseSourceType(secondary); err != nil {
				return err
			}
			if src.Policy, err = parsePolicy(policy); err != nil {
				return err
			}

			if err := a.sources.Add(cmd.Context(), src); err != nil {
				return err
			}
			fmt.Printf("configured %s (primary=%s secondary=%s conflicts=%s)\n",
				src.Path, src.Primary, src.Secondary, src.Policy)
			return nil
		},
	}

	cmd.Flags().StringVar(&primary, "primary", "tags", "primary metadata source: tags, attrs or none")
	cmd.Flags().StringVar(&secondary, "secondary", "attrs", "secondary metadata source: tags, attrs or none")
	cmd.Flags().StringVar(&policy, "policy", "ask", "conflict policy: overwrite, fill-empty or ask")

	return cmd
}

func newSourcesRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <directory>",
		Short: "Stop scanning a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			if err := a.sources.Remove(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Printf("removed %s (its entries are pruned on the next scan)\n", path)
			return nil
		},
	}
}

func parseSourceType(s string) (source.Type, error) {
	switch strings.ToLower(s) {
	case "tags":
		return source.TypeTags, nil
	case "attrs", "attributes":
		return source.TypeAttrs, nil
	case "none":
		return source.TypeNone, nil
	default:
		return 0, fmt.Errorf("unknown source type %q (want tags, attrs or none)", s)
	}
}

func parsePolicy(s string) (source.ConflictPolicy, error) {
	switch strings.ToLower(s) {
	case "overwrite":
		return source.PolicyOverwrite, nil
	case "fill-empty", "fill":
		return source.PolicyFillEmpty, nil
	case "ask":
		return source.PolicyAsk, nil
	default:
		return 0, fmt.Errorf("unknown conflict policy %q (want overwrite, fill-empty or ask)", s)
	}
}
