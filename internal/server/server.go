package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shakram02/sql-schema-mcp/internal/config"
	"github.com/shakram02/sql-schema-mcp/internal/query"
)

// Catalog serves the table resources.
type Catalog interface {
	List(ctx context.Context) ([]*mcp.Resource, error)
	Read(ctx context.Context, uri string) (string, error)
}

// Querier runs the query tool.
type Querier interface {
	Execute(ctx context.Context, sql string) (string, error)
}

type Config struct {
	Logger  *slog.Logger
	Name    string
	Version string
	Catalog Catalog
	Querier Querier

	Transport       string
	ListenAddr      string
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Name == "" {
		return fmt.Errorf("name is required")
	}
	if cfg.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if cfg.Querier == nil {
		return fmt.Errorf("querier is required")
	}
	if cfg.Transport == config.TransportHTTP && cfg.ListenAddr == "" {
		return fmt.Errorf("listen address is required for the http transport")
	}
	return nil
}

type Server struct {
	log *slog.Logger
	cfg Config
	mcp *mcp.Server

	methods map[string]methodHandler
	tools   map[string]toolHandler
	listing []*mcp.Tool
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = config.DefaultShutdownTimeout
	}

	s := &Server{
		log: cfg.Logger,
		cfg: cfg,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, &mcp.ServerOptions{
			Logger: cfg.Logger,
			Capabilities: &mcp.ServerCapabilities{
				Resources: &mcp.ResourceCapabilities{},
				Tools:     &mcp.ToolCapabilities{},
			},
		}),
	}

	inputSchema, err := jsonschema.For[query.Input](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create query input schema: %w", err)
	}
	s.registerTool(&mcp.Tool{
		Name:        "query",
		Description: "Run a read-only SQL query. The statement executes inside a read-only transaction that is always rolled back; rows are returned as a JSON array of objects.",
		InputSchema: inputSchema,
	}, s.callQuery)

	s.methods = map[string]methodHandler{
		"resources/list": s.listResources,
		"resources/read": s.readResource,
		"tools/list":     s.listTools,
		"tools/call":     s.callTool,
	}
	s.mcp.AddReceivingMiddleware(s.dispatch)

	return s, nil
}

// MCP exposes the underlying protocol server, for in-process transports.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Run serves the configured transport until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.MetricsAddr != "" {
		go s.serveMetrics(ctx)
	}

	if s.cfg.Transport == config.TransportHTTP {
		return s.runHTTP(ctx)
	}

	s.log.Info("server: mcp stdio transport ready")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

func (s *Server) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("server: metrics listening", "addr", s.cfg.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("server: metrics server error", "error", err)
	}
}
