package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/server"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP proxy for browser clients",
	Long: `Serve a small JSON API that forwards login and addon collection calls
to the platform and fetches addon manifests through the private-network
guard. Browser origins must be listed in server.allowed_origins.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := getApp(ctx)
		if err != nil {
			return err
		}

		addr := a.cfg.Listen
		if serveListen != "" {
			addr = serveListen
		}

		srv := server.New(server.Options{
			Upstream:       a.client,
			Manifests:      a.manifests,
			AllowedOrigins: a.cfg.AllowedOrigins,
			RateLimit:      a.cfg.RateLimit,
			RateBurst:      a.cfg.RateBurst,
			BodyLimit:      a.cfg.BodyLimit,
			Logger:         getLogger(),
		})

		fmt.Println(styles.FormatSuccess("Proxy listening on http://" + addr))
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default from server.listen)")
	rootCmd.AddCommand(serveCmd)
}
