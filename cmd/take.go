package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperz/internal/actions"
	"github.com/abhisek/paperz/internal/app"
	"github.com/abhisek/paperz/internal/backend"
	"github.com/abhisek/paperz/internal/config"
	"github.com/abhisek/paperz/internal/paperapi"
	"github.com/abhisek/paperz/internal/screen"
	"github.com/abhisek/paperz/internal/screens/library"
	paperscreen "github.com/abhisek/paperz/internal/screens/paper"
	"github.com/abhisek/paperz/internal/store"
)

var takeCmd = &cobra.Command{
	Use:   "take <paper-id>",
	Short: "Take a paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args[0])
	},
}

// runApp opens the store, builds the paper service and launches the TUI.
func runApp(cmd *cobra.Command, paperID string) error {
	ctx := cmd.Context()
	cfg, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if paperID == "" && !cfg.Service.Local {
		return errors.New("a paper id is required unless --local is set")
	}

	events := st.EventRepo()
	orch := actions.New(newService(cfg, st), actions.NewStores(), actions.Config{
		AutoAdvanceDelay: cfg.Session.AutoAdvanceDelay,
		NarrowWidth:      cfg.Session.NarrowWidth,
		OnBackgroundError: func(op string, err error) {
			// The TUI owns the terminal; keep dropped answers in the event log.
			_ = events.AppendRequestEvent(context.Background(), store.RequestEventData{
				Operation:    op + ".dropped",
				ErrorMessage: err.Error(),
			})
		},
	})
	defer orch.Wait()

	var root screen.Screen
	if paperID != "" {
		root = paperscreen.New(ctx, orch, paperID)
	} else {
		root = library.New(ctx, st.PaperRepo(), func(id string) screen.Screen {
			orch.Reset()
			return paperscreen.New(ctx, orch, id)
		})
	}
	return app.Run(root)
}

// newService returns the paper service the TUI talks to: the embedded
// backend in local mode, the HTTP client with retries otherwise. Both
// record their calls in the event log.
func newService(cfg config.Config, st *store.Store) paperapi.Service {
	var svc paperapi.Service
	if cfg.Service.Local {
		svc = backend.New(st.PaperRepo(), cfg.Service.UserID)
	} else {
		client := paperapi.NewClient(cfg.Service.BaseURL, cfg.Service.UserID, &http.Client{Timeout: cfg.Service.Timeout})
		svc = paperapi.WithRetry(client, cfg.RetryPolicy())
	}
	return paperapi.WithLogging(svc, st.EventRepo())
}
