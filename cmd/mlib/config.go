package main

import (
	"fmt"

	"github.com/franz/music-librarian/internal/store"
	"github.com/franz/music-librarian/internal/util"
	"github.com/spf13/viper"
)

// openLibrary applies the global log flags and opens the library database
// named by the configuration. The caller owns the returned store.
func openLibrary() (*store.Store, error) {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	dbPath := viper.GetString("library.database")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open library %s: %w", dbPath, err)
	}
	return db, nil
}
