package archive

import (
	"strings"
	"testing"
	"time"
)

func TestMapResultToPGN(t *testing.T) {
	cases := map[string]string{
		"white": "1-0",
		"black": "0-1",
		"draw":  "1/2-1/2",
		"":      "*",
		"wat":   "*",
	}
	for in, want := range cases {
		if got := mapResultToPGN(in); got != want {
			t.Fatalf("mapResultToPGN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPGN(t *testing.T) {
	rec := &Record{
		RoomCode:  "room-9",
		WhiteConn: "conn-white",
		BlackConn: "conn-black",
		Result:    "black",
		Method:    "checkmate",
		MovesSAN:  []string{"f3", "e5", "g4", "Qh4#"},
		EndedAt:   time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
	}
	pgn := buildPGN(rec, mapResultToPGN(rec.Result))

	for _, want := range []string{
		"[Site \"room-9\"]",
		"[Date \"2024.03.09\"]",
		"[White \"conn-white\"]",
		"[Black \"conn-black\"]",
		"[Termination \"checkmate\"]",
		"[Result \"0-1\"]",
		"1. f3 e5",
		"2. g4 Qh4#",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
	if !strings.HasSuffix(pgn, "0-1") {
		t.Fatalf("PGN must end with the result token:\n%s", pgn)
	}
}

func TestBuildPGNOddPlyAndQuotes(t *testing.T) {
	rec := &Record{
		RoomCode:  `quo"te`,
		WhiteConn: "w",
		BlackConn: "b",
		Result:    "white",
		MovesSAN:  []string{"e4", "e5", "Nf3"},
		EndedAt:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	pgn := buildPGN(rec, mapResultToPGN(rec.Result))
	if !strings.Contains(pgn, "2. Nf3 1-0") {
		t.Fatalf("odd ply movetext wrong:\n%s", pgn)
	}
	if strings.Contains(pgn, `quo"te`) {
		t.Fatalf("quotes not sanitized:\n%s", pgn)
	}
}

func TestNilRepositoryIsNoop(t *testing.T) {
	var r *Repository
	if err := r.SaveResult(nil, &Record{}); err != nil {
		t.Fatalf("nil SaveResult: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
