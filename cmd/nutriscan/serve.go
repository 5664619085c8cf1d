package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/nutriscan/internal/mcpserver"
	"github.com/vbonduro/nutriscan/internal/web"
)

var serveWithMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on LISTEN_ADDR.

With --mcp the MCP tool server also runs on stdin/stdout in the same process.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		if err := a.cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		food, photos, err := a.foodService(ctx)
		if err != nil {
			return err
		}
		chats, err := a.chatService(ctx)
		if err != nil {
			return err
		}

		var srv *web.Server
		if photos != nil {
			srv = web.NewServer(food, chats, photos, a.logger)
		} else {
			srv = web.NewServer(food, chats, nil, a.logger)
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gCtx, a.cfg.ListenAddr)
		})
		if serveWithMCP {
			stdio := server.NewStdioServer(mcpserver.New(mcpserver.Deps{Food: food, Chats: chats}, version))
			g.Go(func() error {
				err := stdio.Listen(gCtx, os.Stdin, os.Stdout)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			a.logger.Info("MCP server started (stdio transport)")
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithMCP, "mcp", false, "also serve MCP tools over stdio")
}
