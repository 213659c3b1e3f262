// Package cli wires the library core into a command-line surface: scan,
// sync, sources, tags and cover commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"attune/internal/config"
	"attune/internal/db"
	"attune/internal/library"
	"attune/internal/logging"
	"attune/internal/metadata"
	"attune/internal/scanner"
	"attune/internal/source"
	"attune/internal/tagsync"
)

const appSlug = "attune"

type app struct {
	paths    config.Paths
	settings config.Settings
	log      *slog.Logger
	logFile  *os.File
	database *sql.DB

	codec   *metadata.Codec
	sources *source.Repository
	cache   *library.Cache
	engine  *tagsync.Engine

	scanDone chan library.ScanDonePayload
	verbose  bool
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	a := &app{scanDone: make(chan library.ScanDonePayload, 1)}

	root := &cobra.Command{
		Use:           appSlug,
		Short:         "Scan, catalog and synchronize audio file metadata",
		Long: appSlug + ` keeps a durable catalog of your audio files and reconciles
metadata between embedded tags and native filesystem attributes,
per-directory, under a configurable conflict policy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.shutdown()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "print progress events")

	root.AddCommand(
		newScanCommand(a),
		newSyncCommand(a),
		newSourcesCommand(a),
		newTagsCommand(a),
		newCoverCommand(a),
	)

	return root
}

func (a *app) init(ctx context.Context) error {
	paths, err := config.ResolvePaths(appSlug)
	if err != nil {
		return err
	}
	a.paths = paths

	settings, err := config.LoadSettings(paths.SettingsPath)
	if err != nil {
		return err
	}
	a.settings = settings

	log, logFile, err := logging.Setup(paths.StateDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: file logging unavailable:", err)
		log = logging.Discard()
	}
	a.log = log
	a.logFile = logFile

	dbPath := paths.DBPath
	if settings.DBPath != "" {
		dbPath = settings.DBPath
	}
	database, err := db.Bootstrap(dbPath)
	if err != nil {
		return err
	}
	a.database = database

	a.codec = metadata.NewCodec(log)
	a.sources = source.NewRepository(database, paths.LegacyDirs, log)

	factory := scanner.NewFactory(scanner.Config{
		Extensions:      settings.Extensions,
		FullBatchSize:   settings.FullBatchSize,
		RatingBatchSize: settings.RatingBatchSize,
	}, a.codec, log)

	a.cache = library.NewCache(library.NewEntryStore(database, log), a.sources, factory, a.emit, log)
	a.cache.Start(ctx)

	a.engine = tagsync.NewEngine(a.codec, a.sources, a.cache, a.emit, log)
	return nil
}

func (a *app) shutdown() {
	if a.cache != nil {
		a.cache.Stop()
	}
	if a.database != nil {
		a.database.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// emit routes library events to the terminal. Scan completion is also
// forwarded to the channel the scan command blocks on.
func (a *app) emit(event string, payload any) {
	switch event {
	case library.EventScanProgress:
		if a.verbose {
			p := payload.(library.ScanProgressPayload)
			fmt.Printf("\rscanning %s: %d dirs, %d files examined, %d updated (%.1fs)",
				p.Base, p.Dirs, p.Scanned, p.Updated, p.ElapsedSec)
		}
	case library.EventScanDone:
		p := payload.(library.ScanDonePayload)
		select {
		case a.scanDone <- p:
		default:
		}
	case library.EventBaseOffline:
		p := payload.(library.OfflinePayload)
		fmt.Printf("base offline: %s (%d entries kept)\n", p.Base, p.Count)
	case library.EventSyncProgress:
		if a.verbose {
			p := payload.(library.SyncProgressPayload)
			fmt.Printf("\rsyncing %d/%d", p.Done+1, p.Total)
		}
	case library.EventItemRemoved:
		if a.verbose {
			p := payload.(library.RemovedPayload)
			fmt.Printf("removed: %s\n", p.Path)
		}
	}
}
