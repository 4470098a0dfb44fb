package game

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Position is an opaque board state. It is produced and consumed only by the
// Engine that created it and is replaced wholesale on every applied move.
type Position interface{}

// Applied is the outcome of a successful move application.
type Applied struct {
	Position Position
	UCI      string
	SAN      string
}

// Engine is the rules capability a session delegates to. Any conformant rules
// implementation can be substituted without touching room or session logic.
type Engine interface {
	// Start returns the canonical starting position.
	Start() Position
	// Apply validates src/dst/promotion against pos and returns the resulting
	// position. The input position is never mutated. Returns ErrMalformedMove
	// for unusable input and ErrIllegalMove for moves the rules reject.
	Apply(pos Position, src, dst, promotion string) (Applied, error)
	// SideToMove reports which color moves next.
	SideToMove(pos Position) Color
	// IsTerminal reports whether the game has ended (mate, stalemate, draw rule).
	IsTerminal(pos Position) bool
	// FEN renders the canonical position string.
	FEN(pos Position) string
	// Result returns "white", "black" or "draw" for a terminal position, "" otherwise.
	Result(pos Position) string
}

type chessEngine struct{}

// NewChessEngine returns the corentings/chess backed rules engine.
func NewChessEngine() Engine { return chessEngine{} }

type chessPosition struct {
	game *nchess.Game
}

func (chessEngine) Start() Position {
	return &chessPosition{game: nchess.NewGame()}
}

func (chessEngine) Apply(pos Position, src, dst, promotion string) (Applied, error) {
	cp, ok := pos.(*chessPosition)
	if !ok || cp == nil {
		return Applied{}, ErrMalformedMove
	}
	src = strings.ToLower(strings.TrimSpace(src))
	dst = strings.ToLower(strings.TrimSpace(dst))
	if len(src) != 2 || len(dst) != 2 {
		return Applied{}, ErrMalformedMove
	}
	promo := strings.ToLower(strings.TrimSpace(promotion))
	if len(promo) > 1 {
		promo = promo[:1]
	}
	uci := src + dst + promo

	next := replay(cp.game)
	if next == nil {
		return Applied{}, ErrIllegalMove
	}
	cur := next.Position()
	mv, err := (nchess.UCINotation{}).Decode(cur, uci)
	if err != nil {
		return Applied{}, ErrIllegalMove
	}
	san := (nchess.AlgebraicNotation{}).Encode(cur, mv)
	if err := next.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return Applied{}, ErrIllegalMove
	}
	return Applied{Position: &chessPosition{game: next}, UCI: uci, SAN: san}, nil
}

func (chessEngine) SideToMove(pos Position) Color {
	cp, ok := pos.(*chessPosition)
	if !ok || cp == nil {
		return White
	}
	if cp.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

func (chessEngine) IsTerminal(pos Position) bool {
	cp, ok := pos.(*chessPosition)
	if !ok || cp == nil {
		return false
	}
	return cp.game.Outcome() != nchess.NoOutcome
}

func (chessEngine) FEN(pos Position) string {
	cp, ok := pos.(*chessPosition)
	if !ok || cp == nil {
		return ""
	}
	return cp.game.FEN()
}

func (chessEngine) Result(pos Position) string {
	cp, ok := pos.(*chessPosition)
	if !ok || cp == nil {
		return ""
	}
	switch cp.game.Outcome() {
	case nchess.WhiteWon:
		return "white"
	case nchess.BlackWon:
		return "black"
	case nchess.Draw:
		return "draw"
	}
	return ""
}

// replay clones a game by re-applying its move list from the start position.
// Applying a stored FEN instead can double-apply moves, so history is the
// source of truth.
func replay(src *nchess.Game) *nchess.Game {
	g := nchess.NewGame()
	for _, mv := range src.Moves() {
		if err := g.PushNotationMove(mv.String(), nchess.UCINotation{}, nil); err != nil {
			return nil
		}
	}
	return g
}
