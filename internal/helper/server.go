package helper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadySentinel is printed on stdout once the listener is bound; the
// parent process scans for it before sending traffic.
const ReadySentinel = "READY"

// Serve runs the engine as a loopback HTTP server until the context is
// canceled or /shutdown is called. The sentinel is written to ready
// (the parent's view of our stdout) only after the port is actually
// bound, never optimistically.
func (e *Engine) Serve(ctx context.Context, port int, ready io.Writer) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	shutdown := make(chan struct{})
	var shutdownOnce sync.Once

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/request", func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, e.Perform(c.Request.Context(), req))
	})
	router.POST("/shutdown", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "bye"})
		shutdownOnce.Do(func() { close(shutdown) })
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("bind helper port %d: %w", port, err)
	}

	srv := &http.Server{Handler: router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Fprintln(ready, ReadySentinel)
	e.logger.Info("Helper serving", zap.String("addr", listener.Addr().String()))

	select {
	case <-ctx.Done():
	case <-shutdown:
	case err := <-errCh:
		return err
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(stopCtx)
}
