package httphandlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	handler http.Handler
	log     interfaces.ILogger
}

func NewServer(address string, handler http.Handler, log interfaces.ILogger) *Server {
	return &Server{
		address: address,
		handler: handler,
		log:     log,
	}
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http server is listening: %s", s.address)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		s.log.Warnf("http server shutdown error: %s", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	s.log.Infof("http server stopped")
	return ctx.Err()
}
