package cmd

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"clipseek/internal/apihandlers"
)

var (
	serveAddr string
	servePort string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the video search HTTP API server",
	Long: `Starts an HTTP server exposing search and ingestion over a RESTful
API. Text and image search run synchronously; ingestion is queued onto the
background worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		router := gin.Default() // Includes logger and recovery middleware

		apiHandler := apihandlers.NewAPIHandler(appInstance)

		v1 := router.Group("/api/v1")
		{
			searchGroup := v1.Group("/search")
			{
				searchGroup.POST("", apiHandler.SearchHandler)
				searchGroup.POST("/image", apiHandler.ImageSearchHandler)
			}

			videoGroup := v1.Group("/videos")
			{
				videoGroup.GET("", apiHandler.ListVideosHandler)
				videoGroup.POST("", apiHandler.EnqueueIngestHandler)
			}

			v1.GET("/tasks/:id", apiHandler.TaskStatusHandler)
		}

		router.GET("/health", apiHandler.HealthHandler)

		listenAddr := fmt.Sprintf("%s:%s", serveAddr, servePort)
		log.Printf("Starting clipseek API server on http://%s", listenAddr)

		if err := router.Run(listenAddr); err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost", "Address to listen on")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
