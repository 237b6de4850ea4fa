package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/audit"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/config"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/session"
)

func loadConfig() (*config.ExplorerConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func commandLogger(cmd *cobra.Command) *log.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func newExplorer(cfg *config.ExplorerConfig, logger *log.Logger, auditLog io.Writer) (*explorer.Explorer, error) {
	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.Timeout()})

	return explorer.New(explorer.Options{
		Transport: client,
		Server:    client.BaseURL(),
		PerPage:   cfg.PerPage,
		Logger:    logger,
		Audit:     audit.NewLogger(auditLog, cfg.IsAuditEnabled()),
	})
}

// credentials reads the login of the nodes commands from their flags,
// falling back to EXPLORER_USERNAME and EXPLORER_PASSWORD.
func credentials(cmd *cobra.Command) (session.Credentials, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	if username == "" {
		username = os.Getenv("EXPLORER_USERNAME")
	}
	if password == "" {
		password = os.Getenv("EXPLORER_PASSWORD")
	}
	if username == "" {
		return session.Credentials{}, errors.New("a username is required (--username or EXPLORER_USERNAME)")
	}
	return session.Credentials{Username: username, Password: password}, nil
}

func login(ctx context.Context, e *explorer.Explorer, creds session.Credentials) error {
	snap, err := e.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if snap.Status == session.StatusRejected {
		message := "invalid credentials"
		if snap.Rejection != nil && snap.Rejection.Message != "" {
			message = snap.Rejection.Message
		}
		return fmt.Errorf("login rejected: %s", message)
	}
	return nil
}

// connect builds an explorer from the configuration and logs it in.
func connect(cmd *cobra.Command) (*explorer.Explorer, error) {
	creds, err := credentials(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e, err := newExplorer(cfg, commandLogger(cmd), os.Stderr)
	if err != nil {
		return nil, err
	}

	if err := login(cmd.Context(), e, creds); err != nil {
		return nil, err
	}
	return e, nil
}
