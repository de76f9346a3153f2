// Package server exposes a design session over HTTP.
//
// Two transports share one [design.Session]:
//
//   - POST /generate answers a single request with the finished definition.
//     Progress events go to the server log.
//   - GET /ws upgrades to a WebSocket. Each "generate-layout" message streams
//     status events back on the same connection, followed by the result.
//
// GET /healthz reports liveness and GET /schema returns the layout_designer
// tool schema.
//
// When a Redis publisher is configured every status event is additionally
// published on "<channel prefix>:<request id>".
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/layoutgen/pkg/design"
	"github.com/matzehuels/layoutgen/pkg/httputil"
	"github.com/matzehuels/layoutgen/pkg/integrations"
	"github.com/matzehuels/layoutgen/pkg/observability"
	"github.com/matzehuels/layoutgen/pkg/scope"
	"github.com/matzehuels/layoutgen/pkg/session"
	"github.com/matzehuels/layoutgen/pkg/status"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	// Addr is the listen address for [Server.ListenAndServe].
	Addr string

	// AllowedOrigins lists the origins accepted for CORS and WebSocket
	// upgrades. Empty or "*" accepts any origin.
	AllowedOrigins []string

	// Redis, when non-nil, receives every status event.
	Redis status.Publisher

	// ChannelPrefix prefixes Redis channel names.
	ChannelPrefix string
}

// Server serves design requests.
type Server struct {
	session  *design.Session
	logger   *log.Logger
	opts     Options
	conns    *session.Registry[*wsConn]
	upgrader websocket.Upgrader
	router   chi.Router
}

// New returns a server backed by sess. Log output goes to logger.
func New(sess *design.Session, logger *log.Logger, opts Options) *Server {
	s := &Server{
		session: sess,
		logger:  logger,
		opts:    opts,
		conns:   session.NewRegistry[*wsConn](),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(origin, opts.AllowedOrigins)
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(s.opts.AllowedOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Post("/generate", s.handleGenerate)
	r.Get("/ws", s.handleWS)
	r.MethodNotAllowed(httputil.MethodNotAllowed)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Connections returns the number of open WebSocket connections.
func (s *Server) Connections() int { return s.conns.Len() }

// ListenAndServe serves on Options.Addr until ctx is done, then shuts down
// gracefully and closes every WebSocket connection.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "connections", s.conns.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.conns.CloseAll(); err != nil {
		s.logger.Debug("close websocket connections", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newScope creates the scope of one request. Events go to sink and, when
// configured, to Redis.
func (s *Server) newScope(sink status.Sink) *scope.Scope {
	id := uuid.NewString()
	if s.opts.Redis != nil {
		channel := s.opts.ChannelPrefix + ":" + id
		sink = status.Multi(sink, status.NewRedisSink(s.opts.Redis, channel, s.logger))
	}
	return scope.NewWithID(id, sink)
}

// =============================================================================
// REST
// =============================================================================

type generateRequest struct {
	Content design.PageContent `json:"content"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	logger := s.logger.With("request", middleware.GetReqID(r.Context()))
	sc := s.newScope(status.NewLogSink(logger))
	w.Header().Set("X-Layout-Request", sc.RequestID)

	def, err := s.session.Run(r.Context(), sc, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, def)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httputil.StatusFor(err)
	if code >= http.StatusInternalServerError {
		kv := []any{"path", r.URL.Path, "status", code, "error", err}
		if upstream := integrations.StatusCode(err); upstream != 0 {
			kv = append(kv, "upstream_status", upstream)
		}
		s.logger.Error("request failed", kv...)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	httputil.WriteError(w, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.conns.Len(),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	w.Write(design.Schema())
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.Host, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, code, elapsed)
		s.logger.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", code,
			"bytes", ww.BytesWritten(),
			"duration", elapsed.Round(time.Millisecond),
			"request", middleware.GetReqID(r.Context()),
		)
	})
}

func corsHandler(allowed []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Layout-Request"},
		MaxAge:         300,
	})
}

// originAllowed is the WebSocket upgrade origin check. It applies the same
// rules as the CORS middleware.
func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
