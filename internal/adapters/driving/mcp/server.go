package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.1.0"

const instructions = "Answers questions from documents ingested into sercha-rag. " +
	"Call ask with a natural-language question; the reply lists the sources it used. " +
	"Call ingest_text to add new material. Read sercha-rag://stats for index size and models."

// shutdownGrace bounds how long in-flight HTTP sessions may take to finish.
const shutdownGrace = 5 * time.Second

// Server exposes the query and ingest services over the Model Context Protocol.
type Server struct {
	ports *Ports
	inner *mcp.Server
}

// NewServer builds a server with every tool and resource the ports allow.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	inner := mcp.NewServer(
		&mcp.Implementation{Name: "sercha-rag", Version: Version},
		&mcp.ServerOptions{Instructions: instructions},
	)

	s := &Server{ports: ports, inner: inner}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Handler serves the streamable HTTP transport. Every session shares one server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.inner }, nil)
}

// Run serves a single client over stdin/stdout until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server on stdio")
	return s.inner.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP listens on addr and serves the streamable HTTP transport until ctx
// is done. A clean shutdown returns nil.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", ln.Addr())
	err = srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
