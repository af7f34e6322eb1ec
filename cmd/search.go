package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"clipseek/internal/clix"
	"clipseek/internal/models"
	"clipseek/internal/services"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search indexed videos by text or image",
	Long: `Runs a semantic search over indexed videos. The query is either free
text given as arguments or an image file given with --image. Results are
video segments ranked by confidence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if appInstance.SearchService == nil {
			return fmt.Errorf("provider is not configured (set TWELVE_LABS_API_KEY)")
		}

		imagePath, _ := cmd.Flags().GetString("image")
		limit := clix.ParseLimit(cmd.Flags(), appInstance.Config.Search.DefaultLimit)
		threshold, err := clix.ParseThreshold(cmd.Flags())
		if err != nil {
			return err
		}

		var matches []models.SearchMatch
		if imagePath != "" {
			f, err := os.Open(imagePath)
			if err != nil {
				return fmt.Errorf("failed to open image %s: %w", imagePath, err)
			}
			defer f.Close()

			matches, err = appInstance.SearchService.SearchImage(cmd.Context(), services.ImageSearchParams{
				Image:     f,
				ImageName: filepath.Base(imagePath),
				Limit:     limit,
				Threshold: threshold,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
		} else {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("provide a text query or --image")
			}
			matches, err = appInstance.SearchService.SearchText(cmd.Context(), services.TextSearchParams{
				Query:     query,
				Limit:     limit,
				Threshold: threshold,
			})
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(matches) == 0 {
			fmt.Println("No matches found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Video", "Segment", "Confidence", "Score"})
		table.SetBorder(true)
		for _, m := range matches {
			segment := fmt.Sprintf("%.1fs - %.1fs", m.Start, m.End)
			table.Append([]string{m.Filename, segment, string(m.Confidence), fmt.Sprintf("%.2f", m.Score)})
		}
		table.Render()
		return nil
	},
}

func init() {
	searchCmd.Flags().String("image", "", "Path to an image file to search with instead of text")
	searchCmd.Flags().IntP("limit", "l", 0, "Maximum number of results (0 uses the configured default)")
	searchCmd.Flags().String("threshold", "", "Minimum confidence tier: high, medium, or low")
	rootCmd.AddCommand(searchCmd)
}
