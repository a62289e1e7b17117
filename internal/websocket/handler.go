package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/infrastructure"
)

// Handler upgrades subscription requests and attaches them to the hub
type Handler struct {
	hub            *Hub
	allowedOrigins []string
	allowAll       bool
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewHandler creates the upgrade handler. Requests without an Origin, from the
// serving host, or from allowedOrigins are accepted; allowAll accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string, allowAll bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		allowAll:       allowAll,
		logger:         logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowAll || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// ServeHTTP upgrades the request and starts the client pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		return
	}

	client := NewClient(h.hub, conn, infrastructure.GetTraceID(r.Context()), h.logger)
	if !h.hub.Register(client) {
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
