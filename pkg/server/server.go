package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/archive"
	"github.com/vango-dev/reconcile/pkg/middleware"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/session"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// ComponentFactory creates the component for one page view or connection.
type ComponentFactory func() vdom.Component

// Server is the HTTP/websocket server for one root component.
type Server struct {
	config   *Config
	factory  ComponentFactory
	sessions *SessionManager
	upgrader websocket.Upgrader
	renderer *render.Renderer

	archive    archive.Store
	middleware []session.Middleware
	kinds      []vdom.EventKind

	mu         sync.Mutex
	httpServer *http.Server

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithArchive stores every dispatch that changed the document.
func WithArchive(store archive.Store) Option {
	return func(s *Server) {
		s.archive = store
	}
}

// WithDispatchMiddleware wraps every session dispatch with mw.
func WithDispatchMiddleware(mw ...session.Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithEventKinds sets the event kinds every session listens to in
// addition to those its tree uses.
func WithEventKinds(kinds ...vdom.EventKind) Option {
	return func(s *Server) {
		s.kinds = append(s.kinds, kinds...)
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With("component", "server")
	}
}

// New creates a server for components made by factory. A nil config uses
// DefaultConfig; unset fields take their defaults.
func New(config *Config, factory ComponentFactory, opts ...Option) *Server {
	config = config.withDefaults()

	s := &Server{
		config:  config,
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		renderer: render.NewRenderer(render.RendererConfig{}),
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = NewSessionManager(config.MaxSessions, s.logger)
	return s
}

// Handler returns the server's routes:
//
//	GET /                       page with the pre-rendered component
//	GET <SocketPath>            websocket
//	GET /_reconcile/client.js   client script
//	GET <MetricsPath>           Prometheus metrics, when configured
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/", s.handlePage)
	r.Get(s.config.SocketPath, s.HandleWebSocket)
	r.Get(ClientScriptPath, serveClientScript)
	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.Handler())
	}
	return r
}

// handlePage renders a fresh component into the page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	body, err := renderSnapshot(s.factory())
	if err != nil {
		s.logger.Error("page render failed", "error", err, "request_id", chimw.GetReqID(r.Context()))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = s.renderer.RenderPage(w, render.PageData{
		Body:         body,
		RootID:       s.config.RootID,
		Title:        s.config.Title,
		SocketPath:   s.config.SocketPath,
		ClientScript: ClientScriptPath,
	})
	if err != nil {
		s.logger.Error("page write failed", "error", err)
	}
}

// HandleWebSocket upgrades the request and serves one connection until it
// closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Reserve() {
		middleware.RecordWebSocketError("limit")
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessions.Release()
		middleware.RecordWebSocketError("upgrade")
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(s.config.MaxMessageSize)

	c, err := open(s, ws)
	if err != nil {
		s.sessions.Release()
		s.logger.Error("mount failed", "error", err)
		ws.Close()
		return
	}
	s.sessions.add(c)
	defer s.sessions.remove(c)

	c.readLoop()
}

// Sessions returns the connection registry.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Run serves on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// renderSnapshot renders component once for the page, recovering a panic
// as an error.
func renderSnapshot(component vdom.Component) (snap *vdom.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeDispatchPanic).With("panic", r).With("phase", "page")
		}
	}()
	return vdom.Reduce(vdom.Normalize(component.Render())), nil
}
