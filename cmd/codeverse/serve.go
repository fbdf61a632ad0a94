package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/haigpapa/Chromatoverse/pkg/repo"
	"github.com/haigpapa/Chromatoverse/pkg/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		addr  string
		store bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			global, err := opts.globalConfig()
			if err != nil {
				return err
			}
			p := global.Active()

			listen := p.Server.Addr
			if port := os.Getenv("PORT"); port != "" {
				listen = net.JoinHostPort("", port)
			}
			if addr != "" {
				listen = addr
			}

			ai, err := optionalModelAnalyzer(ctx, p, false)
			if err != nil {
				return err
			}

			deps := server.Deps{
				Analyzer:  newProfileAnalyzer(global, ai),
				Cloner:    repo.GitCloner{},
				AIEnabled: ai != nil,
				Logger:    slog.Default(),
			}
			// A nil *llm.Analyzer must not become a non-nil Explainer
			if ai != nil {
				deps.Explainer = ai
			}

			if store {
				database, err := openDB(p)
				if err != nil {
					return err
				}
				defer database.Close()
				deps.Store = database
			}

			if !opts.debug {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := server.New(server.Config{
				Addr:           listen,
				TempDir:        p.Server.TempDir,
				CacheSize:      p.Server.CacheSize,
				CacheTTL:       p.Server.CacheTTL,
				CloneTimeout:   p.Server.CloneTimeout,
				AllowedOrigins: p.Server.AllowedOrigins,
			}, deps)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🚀 Codeverse Explorer API running on %s\n", listen)
			fmt.Fprintf(out, "   Health check: GET /api/health\n")
			fmt.Fprintf(out, "   Analysis endpoint: POST /api/analyze\n")
			if ai == nil {
				fmt.Fprintln(out, "   AI analysis: disabled (set a classifier provider and API key)")
			}

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from profile, or :$PORT)")
	cmd.Flags().BoolVar(&store, "store", false, "persist analyses in the database and serve /api/analyses/:id")
	return cmd
}
