package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List videos known to the local registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		videos, err := appInstance.Registry.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list videos: %w", err)
		}

		if len(videos) == 0 {
			fmt.Println("No videos registered. Run 'clipseek ingest' to add some.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Video ID", "Filename", "Status", "Duration", "Indexed At"})
		table.SetBorder(true)

		for _, v := range videos {
			duration := "N/A"
			if v.DurationSec > 0 {
				duration = fmt.Sprintf("%.0fs", v.DurationSec)
			}
			indexedAt := "N/A"
			if v.IndexedAt != nil {
				indexedAt = v.IndexedAt.Format("2006-01-02 15:04:05")
			}
			videoID := v.VideoID
			if videoID == "" {
				videoID = "(pending)"
			}
			table.Append([]string{videoID, v.Filename, string(v.Status), duration, indexedAt})
		}
		table.Render()

		fmt.Printf("\nTotal: %d video(s)\n", len(videos))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(videosCmd)
}
