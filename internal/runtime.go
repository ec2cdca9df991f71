package internal

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// serve runs h until the base context is cancelled or the process receives
// SIGINT/SIGTERM, then drains connections and runs the shutdown hooks.
func serve(h http.Handler, cfg *runConfig) error {
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	srv := &http.Server{
		Addr:              cmp.Or(cfg.address, ":8000"),
		Handler:           h,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(cmp.Or(cfg.baseCtx, context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bind before reporting readiness so ":0" resolves to a real port.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if cfg.ready != nil {
		cfg.ready(ln.Addr())
	}

	served := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	select {
	case err := <-served:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	return shutdown(srv, cfg, log)
}

// shutdown drains the server first; hooks run afterwards so in-flight
// requests still see the session store and the logger.
// Draining and the hooks each get the full shutdown timeout: a slow
// request must not leave the hooks with an expired context.
func shutdown(srv *http.Server, cfg *runConfig, log *slog.Logger) error {
	var errs []error

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Warn("server did not drain in time", slog.Any("error", err))
		errs = append(errs, err)
	}
	cancelDrain()

	hookCtx, cancelHooks := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancelHooks()

	for _, hook := range cfg.shutdownHooks {
		if err := hook(hookCtx); err != nil {
			log.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Error("shutdown completed with errors", slog.Any("error", err))
		return err
	}
	log.Info("shutdown completed")
	return nil
}
