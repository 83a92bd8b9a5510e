package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/config"
	"github.com/yazin123/nesa/internal/credential"
	"github.com/yazin123/nesa/internal/printer"
	"github.com/yazin123/nesa/pkg/board"
	"github.com/yazin123/nesa/pkg/erp"
)

// env bundles what most commands need. Close releases the credential store.
type env struct {
	cfg    *config.NesaConfig
	store  credential.Store
	client *erp.Client
	closer io.Closer
}

func (e *env) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// loadEnv resolves configuration and opens the credential store.
func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Resolve(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			fmt.Sprintf("Error: %v", err),
			map[string]string{"Config": configPath},
			[]string{"Create a default configuration:\n  nesa init", "Fix the file and retry"},
		)
	}

	e := &env{cfg: cfg}
	switch cfg.Credential.Backend {
	case "redis":
		opts, err := redis.ParseURL(cfg.Credential.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		store, err := credential.NewRedisStore(opts, cfg.Credential.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to create credential store: %w", err)
		}
		if err := store.Ping(cmd.Context()); err != nil {
			store.Close()
			return nil, printer.ErrorWithContext(
				"Redis connection failed",
				fmt.Sprintf("Could not reach the credential store at %s", cfg.Credential.RedisURL),
				map[string]string{"Profile": cfg.Credential.Profile},
				[]string{"Check that Redis is running", "Switch to the file backend:\n  NESA_CREDENTIAL_BACKEND=file"},
			)
		}
		e.store = store
		e.closer = store
	default:
		store, err := credential.NewFileStore(cfg.Credential.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create credential store: %w", err)
		}
		e.store = store
	}

	hc := &http.Client{Timeout: cfg.API.Timeout}
	e.client = erp.NewClient(cfg.API.BaseURL, credential.TokenSource{Store: e.store},
		erp.WithHTTPClient(hc),
		erp.WithLogger(logrus.StandardLogger()),
	)
	return e, nil
}

// signalContext is cancelled on SIGINT/SIGTERM or when the command's context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// apiError turns an erp error into a formatted CLI error.
func apiError(action string, err error) error {
	switch {
	case erp.IsUnauthorized(err):
		return printer.Error(
			fmt.Sprintf("%s: not authorized", action),
			"The server rejected the stored credential.",
			[]string{"Log in again:\n  nesa login"},
		)
	case erp.IsNotFound(err):
		return printer.Error(
			fmt.Sprintf("%s: not found", action),
			fmt.Sprintf("Error: %v", err),
			nil,
		)
	default:
		return printer.Error(
			fmt.Sprintf("%s failed", action),
			fmt.Sprintf("Error: %v", err),
			[]string{"Check api.base_url in nesa.yml and that the server is reachable"},
		)
	}
}

// requireCredential fails with a login hint when nothing is stored.
func requireCredential(cmd *cobra.Command, e *env) (string, error) {
	token, err := e.store.Load(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	if token == "" {
		return "", printer.Error(
			"not logged in",
			"No credential is stored for this profile.",
			[]string{"Log in first:\n  nesa login"},
		)
	}
	return token, nil
}

// boardFor builds the board for kind ("projects" or "tasks").
func boardFor(e *env, kind string) (*board.Board, string, error) {
	var src board.Source
	var layout board.Layout
	var override *config.ColumnsConfig
	var title string

	switch kind {
	case "projects", "project":
		src, layout, override, title = e.client.ProjectBoardSource(), board.ProjectLayout, e.cfg.Board.Projects, "Projects"
	case "tasks", "task":
		src, layout, override, title = e.client.TaskBoardSource(), board.TaskLayout, e.cfg.Board.Tasks, "Tasks"
	default:
		return nil, "", printer.Error(
			fmt.Sprintf("unknown board '%s'", kind),
			"Boards are available for projects and tasks.",
			[]string{"nesa board show projects", "nesa board show tasks"},
		)
	}

	if override != nil {
		layout = board.Layout{Keys: override.Columns, Default: override.Default}
	}

	b, err := board.New(src, layout, board.WithLogger(logrus.StandardLogger()))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create board: %w", err)
	}
	return b, title, nil
}
