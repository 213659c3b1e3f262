package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newScanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan all configured directories and refresh the catalog",
		Long: `Walks every configured base directory, reads metadata from new and
changed files, marks vanished files as missing and persists the catalog.
Interrupting with Ctrl-C stops the walk but still flushes and persists
what was found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cache.StartScan(); err != nil {
				return err
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			for {
				select {
				case <-interrupt:
					fmt.Fprintln(os.Stderr, "\ncancelling scan...")
					a.cache.CancelScan()
				case p := <-a.scanDone:
					if a.verbose {
						fmt.Println()
					}
					state := "complete"
					if p.Cancelled {
						state = "cancelled"
					}
					fmt.Printf("scan %s: %d files examined, %d updated\n", state, p.Scanned, p.Updated)
					return nil
				}
			}
		},
	}
}
