package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Hub is the surface the transport needs from the simulation owner.
type Hub interface {
	JoinWire() (id string, payload []byte, err error)
	Disconnect(id string)
	SetIntent(id string, dx, dy float64)
	Subscribe(id string, ch chan<- []byte) bool
	Unsubscribe(id string)
	StateSnapshot() ([]byte, error)
	TelemetrySnapshot() map[string]uint64
}

type HTTPHandlerConfig struct {
	Logger *log.Logger
}

type clientMessage struct {
	Ver    int     `json:"ver,omitempty"`
	Type   string  `json:"type"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	SentAt int64   `json:"sentAt"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}

// NewHTTPHandler builds the full HTTP surface: health, metrics, join, and
// the websocket state stream.
func NewHTTPHandler(hub Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/metrics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			ServerTime int64             `json:"serverTime"`
			Telemetry  map[string]uint64 `json:"telemetry"`
		}{
			ServerTime: time.Now().UnixMilli(),
			Telemetry:  hub.TelemetrySnapshot(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		_, data, err := hub.JoinWire()
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		playerID := r.URL.Query().Get("id")
		if playerID == "" {
			httpError(w, "missing id", nethttp.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed for %s: %v", playerID, err)
			return
		}

		session := newSession(hub, conn, playerID, logger)
		if !session.start() {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}
		session.readLoop()
	})

	return mux
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
