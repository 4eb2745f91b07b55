package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ifhere/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve translated stories over HTTP",
	Long: `Serve starts the JSON API used by the rendering layer:

  GET /api/countries
  GET /api/stories
  GET /api/stories/{id}?country=jp&lang=en&contextualize=true&inline=false&format=json

Without lang, the language is matched from the Accept-Language header.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.pipeline, a.stories, a.ref, a.cfg.Translate, a.logger)
	if err := srv.ListenAndServe(ctx, a.cfg.Server); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
