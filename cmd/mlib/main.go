package main

import (
	"fmt"
	"os"

	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mlib",
		Short: "Music librarian - import and manage a tagged music library",
		Long: `mlib is a music library manager. It imports audio files, resolves their
metadata against MusicBrainz, and maintains a searchable database of albums
and tracks with full-text search.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mlib/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "library database file (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("library.database", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.config/mlib")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	viper.SetDefault("library.directory", home+"/Music")
	viper.SetDefault("library.database", "library.db")
	viper.SetDefault("paths.format", "$albumartist/$album/$track - $title")
	viper.SetDefault("import.action", "copy")
	viper.SetDefault("import.fetch_art", true)
	viper.SetDefault("musicbrainz.limit", 5)

	// Read in environment variables that match
	viper.SetEnvPrefix("MLIB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
