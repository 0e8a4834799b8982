package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/database"
	"github.com/kozaktomas/face-enroll/internal/database/sqlite"
	"github.com/spf13/cobra"
)

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities in the local cache",
	Long: `Print the identities currently held in the local SQLite cache.

Examples:
  # Everything
  face-enroll cache list

  # Case and diacritic insensitive name match
  face-enroll cache list --name "tran manh"`,
	RunE: runCacheList,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)

	cacheListCmd.Flags().String("name", "", "Only show identities whose name contains this")
	cacheListCmd.Flags().Bool("json", false, "Output as JSON")
}

// CachedIdentity is one row of cache list output
type CachedIdentity struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	VectorSize int    `json:"vector_size"`
}

func runCacheList(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	cache, err := sqlite.Open(cfg.Sync.CachePath)
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	defer cache.Close()

	ctx := context.Background()
	var identities []database.Identity
	if name != "" {
		identities, err = cache.FindByName(ctx, name)
	} else {
		identities, err = cache.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("reading local cache: %w", err)
	}

	rows := make([]CachedIdentity, 0, len(identities))
	for _, ident := range identities {
		rows = append(rows, CachedIdentity{ID: ident.ID, FullName: ident.FullName, VectorSize: len(ident.VectorFace)})
	}

	if jsonOutput {
		return outputJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No cached identities found.")
		return nil
	}
	fmt.Printf("%-8s %-40s %s\n", "ID", "NAME", "VECTOR")
	for _, row := range rows {
		vector := "-"
		if row.VectorSize > 0 {
			vector = fmt.Sprintf("%d dims", row.VectorSize)
		}
		fmt.Printf("%-8d %-40s %s\n", row.ID, row.FullName, vector)
	}
	fmt.Printf("\n%d identities\n", len(rows))
	return nil
}
