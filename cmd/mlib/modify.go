package main

import (
	"fmt"
	"strings"

	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/cobra"
)

var modifyCmd = &cobra.Command{
	Use:   "modify <query> <field=value>...",
	Short: "Change tag fields of matching tracks",
	Long: `Modify sets tag fields on every track matching the query, for example:

  mlib modify artist:nirvana genre=Grunge
  mlib modify album:=Paranoid year=1970 albumartist="Black Sabbath"

Only tag fields can be set: title, artist, album, albumartist, genre,
year, track, disc. The database is changed; files on disk are not.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runModify,
}

func init() {
	rootCmd.AddCommand(modifyCmd)
}

func runModify(cmd *cobra.Command, args []string) error {
	fields := make(map[string]string)
	for _, arg := range args[1:] {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return fmt.Errorf("invalid assignment %q, expected field=value", arg)
		}
		fields[field] = value
	}

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

	for _, item := range items {
		if err := db.ModifyItem(item.ID, fields); err != nil {
			return fmt.Errorf("failed to modify %s: %w", item.Path, err)
		}
	}

	util.SuccessLog("Modified %d tracks", len(items))
	return nil
}
