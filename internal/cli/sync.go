package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"attune/internal/library"
	"attune/internal/tagsync"
)

func newSyncCommand(a *app) *cobra.Command {
	var (
		base      string
		direction string
		skipAll   bool
	)

	cmd := &cobra.Command{
		Use:   "sync [file]...",
		Short: "Reconcile embedded tags and native attributes",
		Long: `Merges metadata between the two stores, following each directory's
configured primary/secondary sources and conflict policy. With no
arguments every catalog entry is synced; file arguments sync just those
files. Under the ask policy, conflicts are resolved one at a time on
the terminal unless --skip-conflicts is given.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}

			var resolver tagsync.ConflictResolver
			if !skipAll {
				resolver = &terminalResolver{in: bufio.NewReader(os.Stdin)}
			}

			var res library.SyncDonePayload
			if len(args) > 0 {
				if base != "" {
					return fmt.Errorf("--base and file arguments are mutually exclusive")
				}
				paths, err := absAll(args)
				if err != nil {
					return err
				}
				res, err = a.engine.SyncFiles(cmd.Context(), paths, dir, resolver)
				if err != nil {
					return err
				}
			} else {
				res, err = a.engine.SyncMetadata(cmd.Context(), base, dir, resolver)
				if err != nil {
					return err
				}
			}
			if a.verbose {
				fmt.Println()
			}
			fmt.Printf("sync complete: %d synced, %d skipped, %d failed, %d conflicts\n",
				res.Synced, res.Skipped, res.Failed, res.Conflicts)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "limit to one configured base directory")
	cmd.Flags().StringVar(&direction, "direction", "auto", "auto, to-tags or to-attrs")
	cmd.Flags().BoolVar(&skipAll, "skip-conflicts", false, "skip conflicted files instead of asking")

	return cmd
}

func parseDirection(s string) (tagsync.Direction, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return tagsync.DirectionAuto, nil
	case "to-tags", "tags":
		return tagsync.DirectionToTags, nil
	case "to-attrs", "attrs", "attributes":
		return tagsync.DirectionToAttrs, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want auto, to-tags or to-attrs)", s)
	}
}

// terminalResolver asks the user about one conflict at a time.
type terminalResolver struct {
	in *bufio.Reader
}

func (r *terminalResolver) Resolve(ctx context.Context, c tagsync.Conflict) tagsync.Decision {
	fmt.Printf("\nconflict %d/%d: %s\n", c.Index+1, c.Total, c.Path)
	printConflictFields(c)

	for {
		fmt.Print("keep [s]ource, keep [t]arget, s[k]ip? ")

		line, err := r.in.ReadString('\n')
		if err != nil {
			return tagsync.DecisionSkip
		}
		if ctx.Err() != nil {
			return tagsync.DecisionSkip
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "source":
			return tagsync.DecisionKeepSource
		case "t", "target":
			return tagsync.DecisionKeepTarget
		case "k", "skip":
			return tagsync.DecisionSkip
		}
	}
}

func printConflictFields(c tagsync.Conflict) {
	row := func(name, src, dst string) {
		if src != dst && src != "" && dst != "" {
			fmt.Printf("  %-12s source=%q target=%q\n", name, src, dst)
		}
	}
	row("title", c.Source.Title, c.Target.Title)
	row("artist", c.Source.Artist, c.Target.Artist)
	row("album", c.Source.Album, c.Target.Album)
	row("album artist", c.Source.AlbumArtist, c.Target.AlbumArtist)
	row("composer", c.Source.Composer, c.Target.Composer)
	row("genre", c.Source.Genre, c.Target.Genre)
	row("comment", c.Source.Comment, c.Target.Comment)

	numRow := func(name string, src, dst int) {
		if src != dst && src != 0 && dst != 0 {
			fmt.Printf("  %-12s source=%d target=%d\n", name, src, dst)
		}
	}
	numRow("year", c.Source.Year, c.Target.Year)
	numRow("track", c.Source.Track, c.Target.Track)
	numRow("disc", c.Source.Disc, c.Target.Disc)
	numRow("rating", c.Source.Rating, c.Target.Rating)
}
