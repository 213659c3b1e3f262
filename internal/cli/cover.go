package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCoverCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Manage embedded cover art",
	}

	cmd.AddCommand(
		newCoverApplyCommand(a),
		newCoverAlbumCommand(a),
		newCoverClearCommand(a),
		newCoverExtractCommand(a),
	)
	return cmd
}

func newCoverApplyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <image> <file>...",
		Short: "Embed an image into the given audio files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			paths, err := absAll(args[1:])
			if err != nil {
				return err
			}

			res, err := a.engine.ApplyCoverFromFile(paths, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("cover applied to %d files, %d failed\n", res.Applied, res.Failed)
			return nil
		},
	}
}

func newCoverAlbumCommand(a *app) *cobra.Command {
	var albumArtist string

	cmd := &cobra.Command{
		Use:   "apply-album <image> <album>",
		Short: "Embed an image into every catalogued file of an album",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read cover image: %w", err)
			}

			res := a.engine.ApplyAlbumCover(args[1], albumArtist, data, "")
			if res.Applied == 0 && res.Failed == 0 {
				return fmt.Errorf("no catalogued files for album %q", args[1])
			}
			fmt.Printf("cover applied to %d files, %d failed\n", res.Applied, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&albumArtist, "artist", "", "disambiguate albums sharing a title")
	return cmd
}

func newCoverClearCommand(a *app) *cobra.Command {
	var albumArtist string

	cmd := &cobra.Command{
		Use:   "clear-album <album>",
		Short: "Remove the embedded cover from every file of an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res := a.engine.ClearAlbumCover(args[0], albumArtist)
			if res.Applied == 0 && res.Failed == 0 {
				return fmt.Errorf("no catalogued files for album %q", args[0])
			}
			fmt.Printf("cover removed from %d files, %d failed\n", res.Applied, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&albumArtist, "artist", "", "disambiguate albums sharing a title")
	return cmd
}

func newCoverExtractCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Write a file's embedded cover to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve file: %w", err)
			}

			data, mimeType, ok := a.engine.ExtractCover(path)
			if !ok {
				return fmt.Errorf("no embedded cover in %s", path)
			}

			if out == "" {
				out = "cover" + extForMIME(mimeType)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write cover: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (default cover.<ext>)")
	return cmd
}

func extForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}

func absAll(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve file %s: %w", arg, err)
		}
		out = append(out, path)
	}
	return out, nil
}
