package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"clipseek/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Check the status of an indexing task",
	Long: `Performs a single status check against the provider for a previously
submitted indexing task and updates the local registry if the task has
progressed. Useful after an ingest that timed out while waiting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if appInstance.IngestService == nil {
			return fmt.Errorf("provider is not configured (set TWELVE_LABS_API_KEY)")
		}

		info, err := appInstance.IngestService.CheckTask(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("status check failed: %w", err)
		}

		var label string
		switch info.Status {
		case models.TaskStatusReady:
			label = color.GreenString(string(info.Status))
		case models.TaskStatusFailed:
			label = color.RedString(string(info.Status))
		default:
			label = color.YellowString(string(info.Status))
		}

		fmt.Printf("Task:   %s\n", info.TaskID)
		fmt.Printf("Status: %s", label)
		if info.RawStatus != "" && info.RawStatus != string(info.Status) {
			fmt.Printf(" (provider: %s)", info.RawStatus)
		}
		fmt.Println()
		if info.VideoID != "" {
			fmt.Printf("Video:  %s\n", info.VideoID)
		}
		if info.Detail != "" {
			fmt.Printf("Detail: %s\n", info.Detail)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
