// Package room binds one game session to a dynamic set of connections and
// serializes every mutation against it. Each room is its own exclusion
// domain; nothing outside the room touches its session, seats or participants.
package room

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-live-server/internal/archive"
	"github.com/park285/chess-live-server/internal/directory"
	"github.com/park285/chess-live-server/internal/game"
	"github.com/park285/chess-live-server/internal/obslog"
	"github.com/park285/chess-live-server/pkg/wire"
)

// Conn is one live client channel. The room holds a non-owning reference for
// membership and seat bookkeeping; the transport owns the connection lifetime.
// Send enqueues a frame without blocking and reports whether it was accepted.
type Conn interface {
	ID() string
	Send(payload []byte) bool
}

// Room owns one session plus the connections viewing it. All methods lock
// internally; a mutation and the broadcast of its snapshot are indivisible
// with respect to any other mutation on the same room.
type Room struct {
	code string

	mu           sync.Mutex
	session      *game.Session
	participants map[string]Conn
	seats        map[game.Color]string // color → connection id
	hostColor    game.Color            // last recorded host choice, "" until a host joins
	emptySince   time.Time
	closed       bool // set by the registry when reaped; a closed room accepts no one

	dir  *directory.Directory
	arch *archive.Repository
}

func newRoom(code string, eng game.Engine, dir *directory.Directory, arch *archive.Repository) *Room {
	return &Room{
		code:         code,
		session:      game.NewSession(eng),
		participants: make(map[string]Conn),
		seats:        make(map[game.Color]string),
		emptySince:   time.Now(),
		dir:          dir,
		arch:         arch,
	}
}

// Code returns the room identifier. Immutable after creation.
func (r *Room) Code() string { return r.code }

// Add registers a connection and immediately sends it the current snapshot,
// so a newly connected client observes state without waiting for an action.
// Returns false when the registry retired the room between handing it out and
// the connection registering; the caller must look the code up again.
func (r *Room) Add(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.participants[c.ID()] = c
	r.emptySince = time.Time{}
	r.sendStateLocked(c)
	r.publishLocked()
	obslog.L().Info("room_join",
		zap.String("room", r.code),
		zap.String("conn", c.ID()),
		zap.Int("participants", len(r.participants)),
	)
	return true
}

// Leave deregisters a connection and vacates any seat it held. The session is
// untouched; remaining participants only lose one broadcast target.
func (r *Room) Leave(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, c.ID())
	for color, id := range r.seats {
		if id == c.ID() {
			delete(r.seats, color)
		}
	}
	if len(r.participants) == 0 {
		r.emptySince = time.Now()
	}
	r.publishLocked()
	obslog.L().Info("room_leave",
		zap.String("room", r.code),
		zap.String("conn", c.ID()),
		zap.Int("participants", len(r.participants)),
	)
}

// HandleJoin resolves a seat for the connection and replies with the
// acknowledgement plus a fresh snapshot, to the sender only.
func (r *Room) HandleJoin(c Conn, role, preferredColor string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var youAre *string
	switch role {
	case wire.RoleHost:
		color := r.assignHostLocked(c, preferredColor)
		s := string(color)
		youAre = &s
	case wire.RoleGuest:
		color := r.assignGuestLocked(c)
		s := string(color)
		youAre = &s
	default:
		// Unrecognized role: acknowledged with no seat.
	}

	ack, err := json.Marshal(wire.Joined{Type: wire.TypeJoined, YouAre: youAre, GameID: r.code})
	if err == nil {
		c.Send(ack)
	}
	r.sendStateLocked(c)
	r.publishLocked()
	obslog.L().Info("room_seat",
		zap.String("room", r.code),
		zap.String("conn", c.ID()),
		zap.String("role", role),
		zap.Stringp("color", youAre),
	)
}

// HandleMove applies one move. A malformed request, a turn violation and an
// illegal move are indistinguishable on the wire: the sender gets the current,
// unchanged snapshot. A legal move broadcasts the new snapshot to the room.
func (r *Room) HandleMove(c Conn, from, to, promotion string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.applyLocked(c, from, to, promotion)
	if err != nil {
		obslog.L().Debug("move_rejected",
			zap.String("room", r.code),
			zap.String("conn", c.ID()),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		r.sendStateLocked(c)
		return
	}
	r.broadcastLocked()
	if r.session.Terminal() {
		r.archiveLocked()
	}
}

func (r *Room) applyLocked(c Conn, from, to, promotion string) error {
	if from == "" || to == "" {
		return game.ErrMalformedMove
	}
	if !r.allowedToMoveLocked(c) {
		return game.ErrNotYourTurn
	}
	return r.session.ApplyMove(from, to, promotion)
}

// HandleReset resets the session and broadcasts. Deliberately not seat-gated:
// any participant, spectators included, can reset.
func (r *Room) HandleReset(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Reset()
	r.broadcastLocked()
	obslog.L().Info("room_reset", zap.String("room", r.code), zap.String("conn", c.ID()))
}

// HandleUnknown replies with the current snapshot, the safe default for any
// unrecognized frame.
func (r *Room) HandleUnknown(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendStateLocked(c)
}

// assignHostLocked honors an explicit color, picks uniformly for "random" and
// defaults to white. The host color record follows the last writer; a
// connection that already holds a seat keeps it. Binding a seat displaces any
// previous holder of that seat, who stays in the room as a spectator.
func (r *Room) assignHostLocked(c Conn, preferredColor string) game.Color {
	if held, ok := r.seatOfLocked(c.ID()); ok {
		r.hostColor = held
		return held
	}
	var color game.Color
	switch preferredColor {
	case string(game.White), string(game.Black):
		color = game.Color(preferredColor)
	case "random":
		color = game.White
		if n, err := rand.Int(rand.Reader, big.NewInt(2)); err == nil && n.Int64() == 1 {
			color = game.Black
		}
	default:
		color = game.White
	}
	r.hostColor = color
	r.seats[color] = c.ID()
	return color
}

// assignGuestLocked binds the connection to the seat the host did not record,
// defaulting to black when no host has claimed yet.
func (r *Room) assignGuestLocked(c Conn) game.Color {
	if held, ok := r.seatOfLocked(c.ID()); ok {
		return held
	}
	color := game.Black
	if r.hostColor.Valid() {
		color = r.hostColor.Opposite()
	}
	r.seats[color] = c.ID()
	return color
}

func (r *Room) seatOfLocked(connID string) (game.Color, bool) {
	for color, id := range r.seats {
		if id == connID {
			return color, true
		}
	}
	return "", false
}

// allowedToMoveLocked implements opportunistic enforcement: with no seats
// claimed anywhere in the room every connection may move; once any seat
// exists, only the holder of the side-to-move seat may.
func (r *Room) allowedToMoveLocked(c Conn) bool {
	if len(r.seats) == 0 {
		return true
	}
	return r.seats[r.session.SideToMove()] == c.ID()
}

// broadcastLocked serializes exactly one snapshot and enqueues it to every
// participant. A failed enqueue affects only that connection; the transport's
// disconnect detection removes it eventually.
func (r *Room) broadcastLocked() {
	if len(r.participants) == 0 {
		return
	}
	payload, err := json.Marshal(r.session.Snapshot())
	if err != nil {
		return
	}
	for _, c := range r.participants {
		if !c.Send(payload) {
			obslog.L().Debug("broadcast_drop", zap.String("room", r.code), zap.String("conn", c.ID()))
		}
	}
}

func (r *Room) sendStateLocked(c Conn) {
	payload, err := json.Marshal(r.session.Snapshot())
	if err != nil {
		return
	}
	c.Send(payload)
}

// publishLocked pushes the room's membership counters to the optional
// directory without holding the lock across the network call.
func (r *Room) publishLocked() {
	if r.dir == nil {
		return
	}
	e := directory.Entry{
		Code:         r.code,
		Participants: len(r.participants),
		Seated:       len(r.seats),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.dir.Upsert(ctx, e); err != nil {
			obslog.L().Warn("directory_upsert_error", zap.String("room", r.code), zap.Error(err))
		}
	}()
}

// archiveLocked snapshots the finished game and writes it out asynchronously.
func (r *Room) archiveLocked() {
	if r.arch == nil {
		return
	}
	method := "checkmate"
	if r.session.Result() == "draw" {
		method = "draw"
	}
	rec := &archive.Record{
		GameID:    fmt.Sprintf("%s-%d", r.code, r.session.StartedAt().UnixNano()),
		RoomCode:  r.code,
		WhiteConn: r.seats[game.White],
		BlackConn: r.seats[game.Black],
		Result:    r.session.Result(),
		Method:    method,
		MovesUCI:  r.session.MovesUCI(),
		MovesSAN:  r.session.MovesSAN(),
		StartedAt: r.session.StartedAt(),
		EndedAt:   time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.arch.SaveResult(ctx, rec); err != nil {
			obslog.L().Error("archive_error", zap.String("game_id", rec.GameID), zap.Error(err))
			return
		}
		obslog.L().Info("archive_saved", zap.String("game_id", rec.GameID), zap.String("result", rec.Result))
	}()
}

// touch restarts the idle clock on an empty room and reports whether the room
// is still open. Run on every registry lookup so a room handed out just before
// its TTL expires cannot be reaped while the connection is registering.
func (r *Room) touch(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if len(r.participants) == 0 && !r.emptySince.IsZero() {
		r.emptySince = now
	}
	return true
}

// closeIfIdle retires the room when it has been empty for at least ttl. The
// idle check and the close are one atomic step under the room lock, so a
// connection can never register with a room the janitor has decided to reap.
func (r *Room) closeIfIdle(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return true
	}
	if len(r.participants) != 0 || r.emptySince.IsZero() {
		return false
	}
	if now.Sub(r.emptySince) < ttl {
		return false
	}
	r.closed = true
	return true
}
