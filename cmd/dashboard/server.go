package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alim08/fin_folio/pkg/logger"
	"github.com/alim08/fin_folio/pkg/metrics"
	"github.com/alim08/fin_folio/pkg/models"
	"github.com/alim08/fin_folio/pkg/render"
)

const writeWait = 10 * time.Second

// SnapshotSource is satisfied by *aggregator.Refresher.
type SnapshotSource interface {
	Snapshot() models.Snapshot
	Refresh(ctx context.Context) bool
	Subscribe() (<-chan models.Snapshot, func())
}

type Server struct {
	source   SnapshotSource
	upgrader websocket.Upgrader
}

func NewServer(source SnapshotSource) *Server {
	return &Server{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.pageHandler)
	r.Get("/api/portfolio", s.portfolioHandler)
	r.Post("/refresh", s.refreshHandler)
	r.Get("/ws", s.wsHandler)
	r.Handle("/metrics", metrics.Handler())
	return r
}

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.Page(&buf, s.source.Snapshot()); err != nil {
		logger.Log.Error("render failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) portfolioHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

// refreshHandler runs a cycle now. Browsers posting the form are sent back to
// the page; API callers get the snapshot, with 202 if a cycle was already running.
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	ran := s.source.Refresh(context.WithoutCancel(r.Context()))

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	status := http.StatusOK
	if !ran {
		status = http.StatusAccepted
	}
	writeJSON(w, status, s.source.Snapshot())
}

// wsHandler pushes the current snapshot and then every new one until the client leaves.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.WebSocketClients.Inc()
	defer metrics.WebSocketClients.Dec()

	updates, unsubscribe := s.source.Subscribe()
	defer unsubscribe()

	// The read loop only notices the close frame; clients send nothing else.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := push(conn, s.source.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := push(conn, snap); err != nil {
				logger.Log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func push(conn *websocket.Conn, snap models.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("JSON encoding error", zap.Error(err))
	}
}
