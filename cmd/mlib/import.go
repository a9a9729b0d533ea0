package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/franz/music-librarian/internal/importer"
	"github.com/franz/music-librarian/internal/musicbrainz"
	"github.com/franz/music-librarian/internal/report"
	"github.com/franz/music-librarian/internal/tags"
	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Import audio files into the library",
	Long: `Import scans the given paths for audio files, groups them into albums,
resolves each album against MusicBrainz, and adds the tracks to the library
database. Files are copied into the library tree unless --move or --link
is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolP("copy", "c", false, "copy files into the library (overrides config)")
	importCmd.Flags().BoolP("move", "m", false, "move files into the library instead of copying")
	importCmd.Flags().Bool("link", false, "symlink files into the library instead of copying")
	importCmd.Flags().Bool("no-resolve", false, "skip MusicBrainz resolution, import tags as-is")
	importCmd.Flags().Bool("no-art", false, "skip cover art download")
	importCmd.Flags().IntP("jobs", "j", 4, "number of parallel tag readers")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	action := importer.Action(viper.GetString("import.action"))
	if copyFiles, _ := cmd.Flags().GetBool("copy"); copyFiles {
		action = importer.ActionCopy
	}
	if move, _ := cmd.Flags().GetBool("move"); move {
		action = importer.ActionMove
	}
	if link, _ := cmd.Flags().GetBool("link"); link {
		action = importer.ActionLink
	}

	fetchArt := viper.GetBool("import.fetch_art")
	if noArt, _ := cmd.Flags().GetBool("no-art"); noArt {
		fetchArt = false
	}

	var resolver importer.Resolver
	if noResolve, _ := cmd.Flags().GetBool("no-resolve"); !noResolve {
		resolver = musicbrainz.NewClient()
	}

	if !tags.CheckFFprobeAvailable() {
		util.WarnLog("ffprobe not found, bitrate and duration will not be recorded")
	}

	logger, err := report.NewEventLogger(".", report.LevelInfo)
	if err != nil {
		util.WarnLog("Failed to create event log: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	jobs, _ := cmd.Flags().GetInt("jobs")
	im := importer.New(db, resolver, importer.Config{
		Action:      action,
		FetchArt:    fetchArt,
		PathFormat:  viper.GetString("paths.format"),
		LibraryDir:  viper.GetString("library.directory"),
		SearchLimit: viper.GetInt("musicbrainz.limit"),
		Concurrency: jobs,
		Logger:      logger,
	})

	// Stop cleanly on interrupt; the current transaction either commits
	// whole or rolls back whole.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total := &importer.Result{}
	for _, path := range args {
		result, err := im.Import(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		total.Imported += result.Imported
		total.Skipped += result.Skipped
		total.Errors = append(total.Errors, result.Errors...)
	}

	util.SuccessLog("Imported %d tracks (%d skipped, %d errors)",
		total.Imported, total.Skipped, len(total.Errors))
	if logger.Path() != "" {
		util.InfoLog("Event log written to %s", logger.Path())
	}
	return nil
}
