package game

import (
	"errors"
	"testing"
)

func TestSessionApplyAndSnapshot(t *testing.T) {
	s := NewSession(NewChessEngine())
	before := s.Snapshot()
	if before.FEN != startFEN || before.Turn != "white" || before.LastMove != nil || before.GameOver {
		t.Fatalf("unexpected initial snapshot: %+v", before)
	}

	if err := s.ApplyMove("e2", "e4", ""); err != nil {
		t.Fatalf("ApplyMove e2e4: %v", err)
	}
	after := s.Snapshot()
	if after.FEN == before.FEN {
		t.Fatalf("FEN unchanged after legal move")
	}
	if after.LastMove == nil || after.LastMove.From != "e2" || after.LastMove.To != "e4" {
		t.Fatalf("unexpected lastMove: %+v", after.LastMove)
	}
	if after.Turn != "black" || after.GameOver {
		t.Fatalf("unexpected snapshot after e4: %+v", after)
	}
}

func TestSessionIllegalMoveLeavesStateUntouched(t *testing.T) {
	s := NewSession(NewChessEngine())
	if err := s.ApplyMove("e2", "e5", ""); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	snap := s.Snapshot()
	if snap.FEN != startFEN || snap.LastMove != nil {
		t.Fatalf("state mutated by illegal move: %+v", snap)
	}
	if n := len(s.MovesUCI()); n != 0 {
		t.Fatalf("history mutated by illegal move: %d entries", n)
	}
}

func TestSessionLastMoveOverwritten(t *testing.T) {
	s := NewSession(NewChessEngine())
	if err := s.ApplyMove("e2", "e4", ""); err != nil {
		t.Fatalf("e2e4: %v", err)
	}
	if err := s.ApplyMove("e7", "e5", ""); err != nil {
		t.Fatalf("e7e5: %v", err)
	}
	snap := s.Snapshot()
	if snap.LastMove == nil || snap.LastMove.From != "e7" || snap.LastMove.To != "e5" {
		t.Fatalf("lastMove not overwritten: %+v", snap.LastMove)
	}
	uci, san := s.MovesUCI(), s.MovesSAN()
	if len(uci) != 2 || uci[0] != "e2e4" || uci[1] != "e7e5" {
		t.Fatalf("unexpected UCI history: %v", uci)
	}
	if len(san) != 2 || san[0] != "e4" || san[1] != "e5" {
		t.Fatalf("unexpected SAN history: %v", san)
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession(NewChessEngine())
	for _, mv := range [][2]string{{"e2", "e4"}, {"e7", "e5"}, {"g1", "f3"}} {
		if err := s.ApplyMove(mv[0], mv[1], ""); err != nil {
			t.Fatalf("ApplyMove %s%s: %v", mv[0], mv[1], err)
		}
	}
	s.Reset()
	snap := s.Snapshot()
	if snap.FEN != startFEN || snap.Turn != "white" || snap.LastMove != nil || snap.GameOver {
		t.Fatalf("reset did not restore the start state: %+v", snap)
	}
	if len(s.MovesUCI()) != 0 || len(s.MovesSAN()) != 0 {
		t.Fatalf("reset did not clear history")
	}
}

func TestSessionResultAfterMate(t *testing.T) {
	s := NewSession(NewChessEngine())
	for _, mv := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		if err := s.ApplyMove(mv[0], mv[1], ""); err != nil {
			t.Fatalf("ApplyMove %s%s: %v", mv[0], mv[1], err)
		}
	}
	if !s.Terminal() {
		t.Fatalf("expected terminal session")
	}
	if s.Result() != "black" {
		t.Fatalf("expected black result, got %q", s.Result())
	}
	if snap := s.Snapshot(); !snap.GameOver {
		t.Fatalf("snapshot must report game over")
	}
}
