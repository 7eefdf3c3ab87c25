package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/scorecard/pkg/attr"
)

// Run serves the HTTP API and the message router until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.Config.HTTP.Address,
		Handler:           app.HTTPRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		app.logger.Info("HTTP server listening", attr.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := app.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router: %w", err)
		}
	}()

	// handlers must be subscribed before the startup reconcile publishes
	select {
	case <-app.Router.Running():
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go app.RoundModule.Run(ctx, &wg)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("HTTP server shutdown failed", attr.Error(err))
	}

	if err := app.Close(); err != nil {
		app.logger.Error("Shutdown failed", attr.Error(err))
	}
	wg.Wait()
	return runErr
}
