package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"
)

// ServerOption is a function that configures the proxy server
type ServerOption func(*Proxy)

// WithServerName sets the server name
func WithServerName(name string) ServerOption {
	return func(s *Proxy) {
		s.config.Name = name
	}
}

// WithServerAddr sets the listen address
func WithServerAddr(addr string) ServerOption {
	return func(s *Proxy) {
		s.config.Addr = addr
	}
}

// WithServerBaseURL sets the public base URL advertised to MCP clients
func WithServerBaseURL(baseURL string) ServerOption {
	return func(s *Proxy) {
		s.config.BaseURL = baseURL
	}
}

// WithServerLogger sets the server logger
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Proxy) {
		s.logger = logger
	}
}

// WithServerClient sets the API client used by the MCP tools
func WithServerClient(client *Client) ServerOption {
	return func(s *Proxy) {
		s.client = client
	}
}

// serverConfig holds server configuration
type serverConfig struct {
	Name    string
	Addr    string
	BaseURL string
}

// Proxy serves the same-origin proxy route and, when enabled, the MCP bridge.
type Proxy struct {
	config serverConfig
	logger *slog.Logger
	cfg    *Config
	target *url.URL
	client *Client

	tools     []server.ServerTool
	resources []server.ServerResource

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a proxy for the default backend with the MCP bridge disabled.
func NewServer(opts ...ServerOption) (*Proxy, error) {
	return NewServerFromConfig(DefaultConfig(), opts...)
}

// NewServerFromConfig creates a proxy server from configuration
func NewServerFromConfig(cfg *Config, opts ...ServerOption) (*Proxy, error) {
	target, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base_url: %w", err)
	}

	s := &Proxy{
		config: serverConfig{
			Name: cfg.MCP.ServerName,
			Addr: cfg.Proxy.Addr,
		},
		logger: slog.Default(),
		cfg:    cfg,
		target: target,
	}

	for _, opt := range opts {
		opt(s)
	}

	if cfg.MCP.Enabled {
		if s.client == nil {
			s.client = NewFromConfig(cfg, WithLogger(s.logger))
		}
		s.AddTools(positionTools(s.client)...)
		s.AddResources(positionResources(s.client)...)
		s.logger.Info("MCP bridge enabled", "tools", len(s.tools), "resources", len(s.resources))
	}

	return s, nil
}

// AddTools adds tools to the MCP bridge
func (s *Proxy) AddTools(tools ...server.ServerTool) {
	s.tools = append(s.tools, tools...)
}

// AddResources adds resources to the MCP bridge
func (s *Proxy) AddResources(resources ...server.ServerResource) {
	s.resources = append(s.resources, resources...)
}

// Handler returns the HTTP handler of the server.
func (s *Proxy) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.corsHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/config", s.configAPIHandler)
	r.Handle(s.cfg.Proxy.Prefix+"*", s.forwarder())

	if s.cfg.MCP.Enabled {
		sseServer := server.NewSSEServer(s.newMCPServer(),
			server.WithBaseURL(s.baseURL()),
			server.WithUseFullURLForMessageEndpoint(true),
		)
		r.Handle("/sse", sseServer.SSEHandler())
		r.Handle("/message", sseServer.MessageHandler())
	}

	return r
}

func (s *Proxy) newMCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		s.config.Name, s.cfg.MCP.Version,
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithHooks(newServerHooks(s.logger)),
	)

	mcpServer.AddTools(s.tools...)
	mcpServer.AddResources(s.resources...)

	return mcpServer
}

// corsHandler applies the configured CORS headers to everything under /api
// and under the proxy prefix. With a wildcard origin the allow headers are
// sent on every response, not only on cross-origin ones.
func (s *Proxy) corsHandler(next http.Handler) http.Handler {
	c := s.cfg.Proxy.CORS
	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: c.AllowedMethods,
		AllowedHeaders: c.AllowedHeaders,
	})(next)
	wildcard := len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, s.cfg.Proxy.Prefix) {
			if wildcard {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", "*")
				h.Set("Access-Control-Allow-Methods", strings.Join(c.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", strings.Join(c.AllowedHeaders, ", "))
			}
			withCORS.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// forwarder strips the proxy prefix and forwards the request to the backend.
func (s *Proxy) forwarder() http.Handler {
	prefix := strings.TrimSuffix(s.cfg.Proxy.Prefix, "/")

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rawPath := strings.TrimPrefix(pr.In.URL.EscapedPath(), prefix)
			path, err := url.PathUnescape(rawPath)
			if err != nil {
				path = strings.TrimPrefix(pr.In.URL.Path, prefix)
				rawPath = ""
			}
			pr.Out.URL.Path = path
			pr.Out.URL.RawPath = rawPath
			pr.SetURL(s.target)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			// CORS is owned by this server; upstream values would be duplicated
			for name := range resp.Header {
				if strings.HasPrefix(name, "Access-Control-") {
					resp.Header.Del(name)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("Proxy request failed", "method", r.Method, "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream request failed"})
		},
	}
}

// configAPIHandler reports how clients should reach the backend
func (s *Proxy) configAPIHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"base_url":     s.cfg.Backend.BaseURL,
		"proxy_prefix": s.cfg.Proxy.Prefix,
		"dev_port":     s.cfg.Proxy.DevPort,
		"dev_hosts":    s.cfg.Proxy.DevHosts,
		"mcp_enabled":  s.cfg.MCP.Enabled,
	})
}

func (s *Proxy) baseURL() string {
	if s.config.BaseURL != "" {
		return s.config.BaseURL
	}
	if addr := s.Addr(); addr != "" {
		if _, port, err := net.SplitHostPort(addr); err == nil {
			return "http://localhost:" + port
		}
	}
	return fmt.Sprintf("http://localhost%s", s.config.Addr)
}

// Start listens on the configured address and serves in a goroutine until
// ctx is cancelled. Make sure to defer Close() after Start().
func (s *Proxy) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Proxy server listening",
		"name", s.config.Name,
		"addr", listener.Addr().String(),
		"prefix", s.cfg.Proxy.Prefix,
		"backend", s.target.String(),
	)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Proxy server error", "error", err)
		}
	}()

	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", "error", err)
		} else {
			s.logger.Info("HTTP server shutdown successfully")
		}
	}()

	return nil
}

// Name returns the name reported to MCP clients.
func (s *Proxy) Name() string {
	return s.config.Name
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Proxy) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close waits for the server goroutines started by Start to finish.
// The context passed to Start must be cancelled first.
func (s *Proxy) Close() {
	s.wg.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
