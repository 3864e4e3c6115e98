package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperz/internal/backend"
	"github.com/abhisek/paperz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paper API from the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		addr := cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		srv := server.New(backend.New(st.PaperRepo(), cfg.Service.UserID), server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AccessLog:      !quiet,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Serving papers on %s\n", addr)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Disable the access log")
}
