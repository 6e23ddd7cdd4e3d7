package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/taan/internal/repositories"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser login, stores the credentials and connects once to confirm them.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newStack(nil)
	if err != nil {
		return err
	}

	r.logger.Info("starting browser login")
	if err := s.auth.InteractiveLogin(ctx); err != nil {
		return err
	}
	r.recordSession(s, "login")

	return r.writePlain("✓ Logged in as %s\n", s.auth.Username())
}

// AuthStatus connects with stored credentials and prints the outcome followed by the session history.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newStack(nil)
	if err != nil {
		return err
	}

	err = s.auth.InitFromCache(ctx)
	switch {
	case err == nil:
		r.recordSession(s, "cache")
		r.writePlain("✓ Logged in as %s\n", s.auth.Username())
	case shared.KindOf(err) == shared.KindUnauthenticated:
		r.logger.Debug("no usable credentials", "error", err)
		r.writePlain("✗ Not logged in\n")
	default:
		return err
	}

	history := cmd.Int("history")
	if history <= 0 {
		return nil
	}
	db, err := r.database()
	if err != nil {
		r.logger.Warn("session history unavailable", "error", err)
		return nil
	}
	records, err := repositories.NewSessionRepository(db).List(history)
	if err != nil {
		return fmt.Errorf("failed to read session history: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	r.writePlainln("Recent sessions:")
	for _, rec := range records {
		r.writePlain("  %s  %-20s %s\n", rec.ConnectedAt.Local().Format("2006-01-02 15:04"), rec.Username, rec.Source)
	}
	return nil
}

// AuthLogout forgets stored credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newStack(nil)
	if err != nil {
		return err
	}
	if err := s.auth.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}
