// Package ws accepts game websockets and runs the per-connection control
// loop: inbound frames dispatch to room operations, outbound frames flow
// through each connection's egress queue.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/chess-live-server/internal/obslog"
	"github.com/park285/chess-live-server/internal/room"
	"github.com/park285/chess-live-server/pkg/wire"
)

// PathPrefix is where game sockets are mounted; the room code follows it.
const PathPrefix = "/ws/game/"

// Handler upgrades requests under /ws/game/{gameId} and binds each connection
// to its room.
type Handler struct {
	registry *room.Registry

	originPatterns []string
	queueSize      int
	writeTimeout   time.Duration
}

type HandlerOptions struct {
	// OriginPatterns is passed to the websocket accept check. Empty means
	// same-origin only.
	OriginPatterns []string
	QueueSize      int
	WriteTimeout   time.Duration
}

func NewHandler(registry *room.Registry, opts HandlerOptions) *Handler {
	return &Handler{
		registry:       registry,
		originPatterns: opts.OriginPatterns,
		queueSize:      opts.QueueSize,
		writeTimeout:   opts.WriteTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := strings.Trim(strings.TrimPrefix(r.URL.Path, PathPrefix), "/")
	if code == "" || strings.Contains(code, "/") {
		http.NotFound(w, r)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Debug("ws_accept_error", zap.String("room", code), zap.Error(err))
		return
	}

	cl := newClient(conn, h.queueSize, h.writeTimeout)
	go cl.writeLoop()

	// Add fails if the janitor retired the room between lookup and register;
	// the next lookup replaces the closed instance with a fresh one.
	rm := h.registry.GetOrCreate(code)
	for !rm.Add(cl) {
		rm = h.registry.GetOrCreate(code)
	}
	// Cleanup runs on every exit path, error or not.
	defer func() {
		rm.Leave(cl)
		cl.close(websocket.StatusNormalClosure, "")
	}()

	h.readLoop(r.Context(), rm, cl, conn)
}

// readLoop receives frames until the channel closes. Receiving suspends only
// this connection; room mutations happen inside the room's own lock.
func (h *Handler) readLoop(ctx context.Context, rm *room.Room, cl *client, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Closed by either side, or the client is gone. The deferred
			// cleanup in ServeHTTP handles deregistration.
			return
		}

		var frame wire.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Unparseable frame: drop it, keep the loop and the room alive.
			obslog.L().Debug("ws_bad_frame", zap.String("room", rm.Code()), zap.String("conn", cl.ID()))
			continue
		}

		switch frame.Type {
		case wire.TypeJoin:
			rm.HandleJoin(cl, frame.Role, frame.PreferredColor)
		case wire.TypeMove:
			rm.HandleMove(cl, frame.From, frame.To, frame.Promotion)
		case wire.TypeReset:
			rm.HandleReset(cl)
		default:
			rm.HandleUnknown(cl)
		}
	}
}
