package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := db.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Tracks:      %d\n", st.Tracks)
	fmt.Printf("Albums:      %d\n", st.Albums)
	fmt.Printf("Artists:     %d\n", st.Artists)
	fmt.Printf("Total time:  %s\n", formatDuration(st.TotalLength))
	fmt.Printf("Total size:  %s\n", humanize.Bytes(st.TotalSize))
	return nil
}

// formatDuration renders a length in seconds as days/hours/minutes/seconds,
// omitting leading zero units
func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, secs)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
