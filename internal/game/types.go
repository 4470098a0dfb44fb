package game

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opposite returns the complementary side.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// Valid reports whether c is one of the two playable sides.
func (c Color) Valid() bool { return c == White || c == Black }

type staticErr string

func (e staticErr) Error() string { return string(e) }

// Move rejection taxonomy. The wire contract collapses all of these into the same
// snapshot-only reply; they stay distinct so logs and tests can tell the causes apart.
var (
	ErrMalformedMove = staticErr("malformed move")
	ErrIllegalMove   = staticErr("illegal move")
	ErrNotYourTurn   = staticErr("not your turn")
)
