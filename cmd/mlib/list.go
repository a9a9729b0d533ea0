package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls [query]",
	Aliases: []string{"list"},
	Short:   "List tracks or albums matching a query",
	Long: `List tracks matching a query, or all tracks when no query is given.
Bare words search the full-text index; field:value terms filter on item
fields (year:1970..1975, artist:=Nirvana, added:-30d). With --album the
query matches album titles and artists instead, one line per album.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	lsCmd.Flags().BoolP("album", "a", false, "list albums instead of tracks")
	lsCmd.Flags().BoolP("paths", "p", false, "print file paths only")
	rootCmd.AddCommand(lsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	q := ""
	if len(args) > 0 {
		q = args[0]
	}

	if byAlbum, _ := cmd.Flags().GetBool("album"); byAlbum {
		albums, err := db.QueryAlbums(q)
		if err != nil {
			return err
		}
		for _, a := range albums {
			if a.Year != 0 {
				fmt.Printf("%s - %s (%d)\n", a.AlbumArtist, a.Album, a.Year)
			} else {
				fmt.Printf("%s - %s\n", a.AlbumArtist, a.Album)
			}
		}
		return nil
	}

	items, err := db.QueryItems(q)
	if err != nil {
		return err
	}

	pathsOnly, _ := cmd.Flags().GetBool("paths")
	for _, i := range items {
		if pathsOnly {
			fmt.Println(i.Path)
			continue
		}
		fmt.Printf("%s - %s - %s\n", i.Artist, i.Album, i.Title)
	}
	return nil
}
