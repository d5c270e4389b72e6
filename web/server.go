package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Another0Noob/title-dedupe/web/backend"
)

const shutdownTimeout = time.Minute

func HandleBack(ctx context.Context, mux *http.ServeMux, s backend.Settings, log zerolog.Logger) *backend.DedupeAPI {
	api := backend.NewDedupeAPI(ctx, s, log)
	api.Register(mux)
	return api
}

// RunServer serves handler on addr until ctx is done, then shuts down
// gracefully.
func RunServer(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server exited gracefully")
	return nil
}
