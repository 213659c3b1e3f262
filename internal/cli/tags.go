package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"attune/internal/metadata"
	"attune/internal/tagsync"
)

func newTagsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show or edit a file's metadata",
	}

	cmd.AddCommand(newTagsShowCommand(a), newTagsSetCommand(a))
	return cmd
}

func newTagsShowCommand(a *app) *cobra.Command {
	var fromFile bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a file's metadata from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve file: %w", err)
			}

			if fromFile {
				td, ok := a.codec.ReadCombined(path)
				if !ok {
					return fmt.Errorf("no readable metadata in %s", path)
				}
				printTagData(td)
				return nil
			}

			entry, ok := a.cache.Get(path)
			if !ok {
				return fmt.Errorf("%s is not in the catalog (run a scan, or use --from-file)", path)
			}
			printTagData(entry.Tags())
			if entry.Missing {
				fmt.Println("status:       missing (file not found at last scan)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromFile, "from-file", false, "read the file directly instead of the catalog")
	return cmd
}

func newTagsSetCommand(a *app) *cobra.Command {
	var (
		strFlags = map[string]*string{}
		intFlags = map[string]*int{}
	)

	cmd := &cobra.Command{
		Use:   "set <file>...",
		Short: "Edit metadata fields, writing every configured store",
		Long: `Applies the given fields to each file's embedded tags and native
attributes (as its directory configuration dictates) and updates the
catalog. Setting a field to the empty string or 0 clears it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absAll(args)
			if err != nil {
				return err
			}

			patch := buildPatch(cmd, strFlags, intFlags)
			if patch.IsEmpty() {
				return fmt.Errorf("no fields given; see --help for available flags")
			}

			if len(paths) == 1 {
				if err := a.engine.SaveTags(cmd.Context(), paths[0], patch); err != nil {
					return err
				}
				fmt.Printf("updated %s\n", paths[0])
				return nil
			}

			saved, failed := a.engine.SaveTagsForFiles(cmd.Context(), paths, patch)
			fmt.Printf("updated %d files, %d failed\n", saved, failed)
			if failed > 0 {
				return fmt.Errorf("%d files could not be updated", failed)
			}
			return nil
		},
	}

	for _, name := range []string{
		"title", "artist", "album", "album-artist", "composer", "genre", "comment",
		"mb-album-id", "mb-artist-id", "mb-track-id",
	} {
		strFlags[name] = cmd.Flags().String(name, "", "set "+name)
	}
	for _, name := range []string{"year", "track", "track-total", "disc", "disc-total", "rating"} {
		intFlags[name] = cmd.Flags().Int(name, 0, "set "+name)
	}

	return cmd
}

// buildPatch turns only the flags the user actually passed into a patch,
// so untouched fields stay untouched and explicit zero values clear.
func buildPatch(cmd *cobra.Command, strFlags map[string]*string, intFlags map[string]*int) tagsync.FieldPatch {
	var p tagsync.FieldPatch

	strTargets := map[string]**string{
		"title":        &p.Title,
		"artist":       &p.Artist,
		"album":        &p.Album,
		"album-artist": &p.AlbumArtist,
		"composer":     &p.Composer,
		"genre":        &p.Genre,
		"comment":      &p.Comment,
		"mb-album-id":  &p.MBAlbumID,
		"mb-artist-id": &p.MBArtistID,
		"mb-track-id":  &p.MBTrackID,
	}
	for name, target := range strTargets {
		if cmd.Flags().Changed(name) {
			*target = strFlags[name]
		}
	}

	intTargets := map[string]**int{
		"year":        &p.Year,
		"track":       &p.Track,
		"track-total": &p.TrackTotal,
		"disc":        &p.Disc,
		"disc-total":  &p.DiscTotal,
		"rating":      &p.Rating,
	}
	for name, target := range intTargets {
		if cmd.Flags().Changed(name) {
			*target = intFlags[name]
		}
	}

	return p
}

func printTagData(td metadata.TagData) {
	row := func(name, value string) {
		if value != "" {
			fmt.Printf("%-13s %s\n", name+":", value)
		}
	}
	numRow := func(name string, value int) {
		if value != 0 {
			fmt.Printf("%-13s %d\n", name+":", value)
		}
	}

	row("title", td.Title)
	row("artist", td.Artist)
	row("album", td.Album)
	row("album artist", td.AlbumArtist)
	row("composer", td.Composer)
	row("genre", td.Genre)
	row("comment", td.Comment)

	numRow("year", td.Year)
	if td.Track != 0 || td.TrackTotal != 0 {
		fmt.Printf("%-13s %d/%d\n", "track:", td.Track, td.TrackTotal)
	}
	if td.Disc != 0 || td.DiscTotal != 0 {
		fmt.Printf("%-13s %d/%d\n", "disc:", td.Disc, td.DiscTotal)
	}
	numRow("rating", td.Rating)

	numRow("duration", td.DurationSec)
	numRow("bitrate", td.Bitrate)
	numRow("sample rate", td.SampleRate)
	numRow("channels", td.Channels)

	row("mb album id", td.MBAlbumID)
	row("mb artist id", td.MBArtistID)
	row("mb track id", td.MBTrackID)
	row("acoustid", td.AcoustID)
}
