package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const defaultShutdownTimeout = 15 * time.Second

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
	srv    *http.Server
}

func NewServer(cfg RouterConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{Engine: NewRouter(cfg), log: log.With("component", "HTTPServer")}
}

// Run serves on address until ctx is cancelled, then drains in-flight requests. Request
// contexts derive from ctx so open streams end as soon as shutdown begins.
func (s *Server) Run(ctx context.Context, address string) error {
	s.srv = &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", address)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()
	s.log.Info("HTTP server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
