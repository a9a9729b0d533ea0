package main

import (
	"fmt"
	"os"

	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <query>",
	Aliases: []string{"remove"},
	Short:   "Remove matching tracks from the library",
	Long: `Remove deletes the matching items from the library database. The files
themselves are left on disk unless --delete is given. Albums whose last
track is removed remain in the database as empty albums.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rmCmd.Flags().BoolP("delete", "d", false, "also delete the files from disk")
	rootCmd.AddCommand(rmCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.QueryItems(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		util.InfoLog("No tracks match %q", args[0])
		return nil
	}

	deleteFiles, _ := cmd.Flags().GetBool("delete")
	for _, item := range items {
		if err := db.DeleteItem(item.ID); err != nil {
			return fmt.Errorf("failed to remove %s: %w", item.Path, err)
		}
		if deleteFiles {
			if err := os.Remove(item.Path); err != nil && !os.IsNotExist(err) {
				util.WarnLog("Failed to delete %s: %v", item.Path, err)
			}
		}
		util.DebugLog("Removed %s - %s", item.Artist, item.Title)
	}

	util.SuccessLog("Removed %d tracks", len(items))
	return nil
}
