package main

import (
	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify database integrity and the search index",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("rebuild", false, "rebuild the search index from the items table")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return err
	}
	util.SuccessLog("Database integrity OK")

	if rebuild, _ := cmd.Flags().GetBool("rebuild"); rebuild {
		if err := db.RebuildIndex(); err != nil {
			return err
		}
		util.SuccessLog("Search index rebuilt")
	}

	if err := db.VerifyIndex(); err != nil {
		util.ErrorLog("Search index is out of sync, run 'mlib check --rebuild'")
		return err
	}
	util.SuccessLog("Search index OK")
	return nil
}
