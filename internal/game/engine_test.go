package game

import (
	"errors"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestStartPosition(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()
	if fen := eng.FEN(pos); fen != startFEN {
		t.Fatalf("unexpected start FEN: %s", fen)
	}
	if eng.SideToMove(pos) != White {
		t.Fatalf("white must move first")
	}
	if eng.IsTerminal(pos) {
		t.Fatalf("start position must not be terminal")
	}
}

func TestApplyLegalMove(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()
	applied, err := eng.Apply(pos, "e2", "e4", "")
	if err != nil {
		t.Fatalf("Apply e2e4: %v", err)
	}
	if applied.UCI != "e2e4" || applied.SAN != "e4" {
		t.Fatalf("unexpected notation: uci=%q san=%q", applied.UCI, applied.SAN)
	}
	if eng.FEN(applied.Position) == startFEN {
		t.Fatalf("FEN did not change after a legal move")
	}
	if eng.SideToMove(applied.Position) != Black {
		t.Fatalf("black to move after e4")
	}
	// The input position is replaced wholesale, never mutated.
	if eng.FEN(pos) != startFEN {
		t.Fatalf("input position was mutated")
	}
}

func TestApplyIllegalMove(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()
	if _, err := eng.Apply(pos, "e2", "e5", ""); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if eng.FEN(pos) != startFEN {
		t.Fatalf("position changed on illegal move")
	}
}

func TestApplyMalformedSquares(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()
	for _, tc := range [][2]string{{"e", "e4"}, {"e2", "4"}, {"", "e4"}, {"e2e", "e4"}} {
		if _, err := eng.Apply(pos, tc[0], tc[1], ""); !errors.Is(err, ErrMalformedMove) {
			t.Fatalf("Apply(%q,%q): expected ErrMalformedMove, got %v", tc[0], tc[1], err)
		}
	}
}

func TestFoolsMateIsTerminal(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()
	moves := [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}}
	for _, mv := range moves {
		applied, err := eng.Apply(pos, mv[0], mv[1], "")
		if err != nil {
			t.Fatalf("Apply %s%s: %v", mv[0], mv[1], err)
		}
		pos = applied.Position
	}
	if !eng.IsTerminal(pos) {
		t.Fatalf("fool's mate position must be terminal")
	}
	if res := eng.Result(pos); res != "black" {
		t.Fatalf("expected black win, got %q", res)
	}
}

func TestMoveAfterMateRejected(t *testing.T) {
	eng := NewChessEngine()
	pos := eng.Start()
	for _, mv := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		applied, err := eng.Apply(pos, mv[0], mv[1], "")
		if err != nil {
			t.Fatalf("Apply %s%s: %v", mv[0], mv[1], err)
		}
		pos = applied.Position
	}
	if _, err := eng.Apply(pos, "a2", "a3", ""); err == nil {
		t.Fatalf("expected move after mate to be rejected")
	}
}
