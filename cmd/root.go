package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clipseek/internal/app"
	"clipseek/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "clipseek",
	Short: "Semantic video search CLI",
	Long: `Clipseek ingests video files into an external multimodal index and
answers text or image queries with matching video segments. All video
understanding happens on the provider side; local state is a JSON registry
of ingested videos.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance placed in the command context
// by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if appInstance.Provider == nil {
			return fmt.Errorf("provider is not configured (set TWELVE_LABS_API_KEY)")
		}

		fmt.Println("Checking provider connectivity...")
		indexes, err := appInstance.Provider.ListIndexes(cmd.Context())
		if err != nil {
			return fmt.Errorf("provider check failed: %w", err)
		}

		fmt.Printf("Provider reachable. %d index(es) available:\n", len(indexes))
		for _, idx := range indexes {
			fmt.Printf("  - %s (%s)\n", idx.Name, idx.ID)
		}

		indexID, err := appInstance.Registry.IndexID(cmd.Context())
		if err != nil {
			return fmt.Errorf("registry check failed: %w", err)
		}
		if indexID == "" {
			fmt.Println("No working index recorded yet; run 'clipseek ingest' first.")
		} else {
			fmt.Printf("Working index: %s\n", indexID)
		}
		return nil
	},
}
