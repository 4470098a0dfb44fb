package game

import (
	"time"

	"github.com/park285/chess-live-server/pkg/wire"
)

// Session owns the authoritative position of one room plus the move that
// produced it. It is not safe for concurrent use on its own; the owning room's
// lock is the exclusion domain for every call here.
type Session struct {
	eng      Engine
	pos      Position
	lastMove *wire.LastMove
	movesUCI []string
	movesSAN []string
	started  time.Time
}

func NewSession(eng Engine) *Session {
	return &Session{eng: eng, pos: eng.Start(), started: time.Now()}
}

// ApplyMove validates and applies one move. On any error the position and
// last move are untouched; a move is never partially applied.
func (s *Session) ApplyMove(src, dst, promotion string) error {
	applied, err := s.eng.Apply(s.pos, src, dst, promotion)
	if err != nil {
		return err
	}
	s.pos = applied.Position
	s.lastMove = &wire.LastMove{From: src, To: dst}
	s.movesUCI = append(s.movesUCI, applied.UCI)
	s.movesSAN = append(s.movesSAN, applied.SAN)
	return nil
}

// Reset replaces the position with a fresh starting position and clears the
// last move and history. Always succeeds.
func (s *Session) Reset() {
	s.pos = s.eng.Start()
	s.lastMove = nil
	s.movesUCI = nil
	s.movesSAN = nil
	s.started = time.Now()
}

// Snapshot renders the current state. Side-effect free and never stale.
func (s *Session) Snapshot() wire.State {
	return wire.State{
		Type:     wire.TypeState,
		FEN:      s.eng.FEN(s.pos),
		LastMove: s.lastMove,
		Turn:     string(s.eng.SideToMove(s.pos)),
		GameOver: s.eng.IsTerminal(s.pos),
	}
}

// SideToMove reports which color moves next.
func (s *Session) SideToMove() Color { return s.eng.SideToMove(s.pos) }

// Terminal reports whether the game has ended.
func (s *Session) Terminal() bool { return s.eng.IsTerminal(s.pos) }

// Result returns the outcome token for a finished game, "" while running.
func (s *Session) Result() string { return s.eng.Result(s.pos) }

// MovesUCI returns a copy of the applied moves in UCI notation.
func (s *Session) MovesUCI() []string { return append([]string(nil), s.movesUCI...) }

// MovesSAN returns a copy of the applied moves in algebraic notation.
func (s *Session) MovesSAN() []string { return append([]string(nil), s.movesSAN...) }

// StartedAt is when the current game began (creation or last reset).
func (s *Session) StartedAt() time.Time { return s.started }
