package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapgrove/mapgrove/internal/engine"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored maps with node counts and expiry dates",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sums, err := db.ListMapSummaries()
	if err != nil {
		return fmt.Errorf("list maps: %w", err)
	}
	if len(sums) == 0 {
		fmt.Println("No maps stored.")
		return nil
	}

	for _, s := range sums {
		expires := engine.DeletedAt(s.UpdatedAt, s.NewestNode, cfg.Retention.WindowDays)
		modified := s.UpdatedAt
		if s.NewestNode != nil {
			modified = *s.NewestNode
		}
		fmt.Printf("%s  %4d nodes  modified %s  expires %s\n",
			s.ID, s.NodeCount,
			time.UnixMilli(modified).UTC().Format("2006-01-02"),
			expires.Format("2006-01-02"))
	}
	return nil
}
