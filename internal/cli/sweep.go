package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapgrove/mapgrove/internal/engine"
)

var (
	sweepWindow int
	sweepDryRun bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete maps untouched for longer than the retention window",
	Long:  "Sweep finds maps whose newest change is older than the retention window and deletes them along with their nodes. Use --dry-run to see what would go.",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepWindow, "window", 0, "Retention window in days (overrides config)")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "List expired map ids without deleting anything")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	window := cfg.Retention.WindowDays
	if sweepWindow > 0 {
		window = sweepWindow
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if sweepDryRun {
		cutoff := time.Now().UTC().AddDate(0, 0, -window).UnixMilli()
		ids, err := db.OutdatedMapIDs(cutoff)
		if err != nil {
			return fmt.Errorf("list outdated maps: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No expired maps.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Fprintf(os.Stderr, "%d maps would be deleted\n", len(ids))
		return nil
	}

	eng := engine.New(db, window)
	n, err := eng.Sweep(time.Now())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Printf("Deleted %d expired maps.\n", n)
	return nil
}
