package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"clipseek/internal/services"
	"clipseek/internal/videofs"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a video file or directory into the search index",
	Long: `Uploads video files to the provider for indexing and waits for each
indexing task to complete. With --async the upload is handed to the
background worker instead and the command returns immediately.

If path is omitted the configured video directory is scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		async, _ := cmd.Flags().GetBool("async")

		if appInstance.IngestService == nil {
			return fmt.Errorf("provider is not configured (set TWELVE_LABS_API_KEY)")
		}

		path := appInstance.Config.Ingest.VideoDir
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no path given and ingest.video_dir is not configured")
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		var files []string
		if info.IsDir() {
			metas, err := videofs.DiscoverVideoFiles(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", path, err)
			}
			for _, m := range metas {
				files = append(files, m.Path)
			}
			if len(files) == 0 {
				fmt.Printf("No video files found under %s\n", path)
				return nil
			}
			fmt.Printf("Found %d video file(s) under %s\n", len(files), path)
		} else {
			files = []string{path}
		}

		if async {
			if appInstance.JobClient == nil {
				return fmt.Errorf("job queue is not configured")
			}
			for _, f := range files {
				jobID, err := appInstance.IngestService.EnqueueIngest(cmd.Context(), f)
				if err != nil {
					fmt.Printf("%s %s: %v\n", color.RedString("✗"), f, err)
					continue
				}
				fmt.Printf("%s queued %s (job %s)\n", color.GreenString("✓"), f, jobID)
			}
			return nil
		}

		var succeeded, failed int
		for _, f := range files {
			start := time.Now()
			fmt.Printf("Ingesting %s...\n", f)
			video, err := appInstance.IngestService.IngestFile(cmd.Context(), f, services.AwaitOptions{})
			if err != nil {
				failed++
				fmt.Printf("%s %s: %v\n", color.RedString("✗"), f, err)
				continue
			}
			succeeded++
			fmt.Printf("%s %s indexed as %s in %s\n",
				color.GreenString("✓"), f, video.VideoID, time.Since(start).Round(time.Second))
		}

		fmt.Printf("\nDone: %d succeeded, %d failed\n", succeeded, failed)
		if failed > 0 {
			return fmt.Errorf("%d file(s) failed to ingest", failed)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().Bool("async", false, "Queue ingestion on the background worker instead of waiting")
	rootCmd.AddCommand(ingestCmd)
}
