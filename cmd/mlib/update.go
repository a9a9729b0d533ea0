package main

import (
	"fmt"
	"os"
	"time"

	"github.com/franz/music-librarian/internal/tags"
	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [query]",
	Short: "Re-read tags for library files that changed on disk",
	Long: `Update compares each matching item against its file on disk. Items whose
file has a newer modification time are re-read and their tag fields are
refreshed in the database. Missing files are reported but not removed;
use rm for that.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolP("force", "f", false, "re-read all matching files regardless of modification time")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	q := ""
	if len(args) > 0 {
		q = args[0]
	}

	items, err := db.QueryItems(q)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	updated, missing := 0, 0
	for _, item := range items {
		info, err := os.Stat(item.Path)
		if err != nil {
			util.WarnLog("Missing file: %s", item.Path)
			missing++
			continue
		}

		// Stored mtimes are second-granular
		if !force && !info.ModTime().UTC().Truncate(time.Second).After(item.Mtime) {
			continue
		}

		fresh, err := tags.ReadFile(item.Path)
		if err != nil {
			util.ErrorLog("Failed to read %s: %v", item.Path, err)
			continue
		}

		if err := db.UpdateItem(item.ID, fresh); err != nil {
			return fmt.Errorf("failed to update %s: %w", item.Path, err)
		}
		util.DebugLog("Updated %s", item.Path)
		updated++
	}

	util.SuccessLog("Updated %d of %d tracks (%d missing)", updated, len(items), missing)
	return nil
}
