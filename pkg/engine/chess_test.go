package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"mimir/pkg/chessboard"
	"mimir/pkg/dragonboard"
	"mimir/pkg/engine"
	"mimir/pkg/eval"
)

func options() engine.Options {
	nop := zerolog.Nop()
	opts := engine.DefaultOptions()
	opts.Logger = &nop
	return opts
}

type scenario struct {
	name  string
	fen   string
	depth int
	move  string // empty means the first generated move
	score engine.Score
}

var scenarios = []scenario{
	{"start position is level", chessboard.StartFEN, 1, "", 0},
	{"only capture wins a pawn", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", 1, "e4d5", 100},
	{"back rank mate", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", 3, "a1a8", engine.Mate - 1},
	{"black mates too", "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", 3, "a8a1", -(engine.Mate - 1)},
}

func TestScenariosOnChessboard(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			b, err := chessboard.FromFEN(sc.fen)
			if err != nil {
				t.Fatal(err)
			}
			want := sc.move
			if want == "" {
				want = b.LegalMoves()[0].String()
			}
			e := engine.New[*chessboard.Board, chessboard.Move](eval.Material[*chessboard.Board]{}, nil, options())
			res, err := e.SelectMove(context.Background(), b, engine.Budget{MaxDepth: sc.depth})
			if err != nil {
				t.Fatal(err)
			}
			if res.Move.String() != want || res.Score != sc.score {
				t.Fatalf("got %v (%d), want %s (%d)", res.Move, res.Score, want, sc.score)
			}
			if b.FEN() != sc.fen {
				t.Fatalf("board changed to %s", b.FEN())
			}
		})
	}
}

func TestScenariosOnDragonboard(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			b, err := dragonboard.FromFEN(sc.fen)
			if err != nil {
				t.Fatal(err)
			}
			want := sc.move
			if want == "" {
				first := b.LegalMoves()[0]
				want = first.String()
			}
			e := engine.New[*dragonboard.Board, dragonboard.Move](eval.Material[*dragonboard.Board]{}, nil, options())
			res, err := e.SelectMove(context.Background(), b, engine.Budget{MaxDepth: sc.depth})
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Move.String(); got != want || res.Score != sc.score {
				t.Fatalf("got %s (%d), want %s (%d)", got, res.Score, want, sc.score)
			}
			if b.Ply() != 0 {
				t.Fatal("board not restored")
			}
		})
	}
}

func TestWarmTableOnChess(t *testing.T) {
	const fen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	b, err := chessboard.FromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New[*chessboard.Board, chessboard.Move](eval.PieceSquare[*chessboard.Board]{}, nil, options())
	cold, err := e.SelectMove(context.Background(), b, engine.Budget{MaxDepth: 3})
	if err != nil {
		t.Fatal(err)
	}
	coldNodes := e.NodesExplored()
	warm, err := e.SelectMove(context.Background(), b, engine.Budget{MaxDepth: 3})
	if err != nil {
		t.Fatal(err)
	}
	if warm.Move != cold.Move || warm.Score != cold.Score {
		t.Fatalf("warm %v (%d), cold %v (%d)", warm.Move, warm.Score, cold.Move, cold.Score)
	}
	if e.NodesExplored() > coldNodes {
		t.Fatalf("warm run explored %d nodes, cold %d", e.NodesExplored(), coldNodes)
	}
	if b.FEN() != fen {
		t.Fatal("board changed")
	}
}

func TestGameOverOnChess(t *testing.T) {
	b, err := chessboard.FromFEN("R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New[*chessboard.Board, chessboard.Move](eval.Material[*chessboard.Board]{}, nil, options())
	_, err = e.SelectMove(context.Background(), b, engine.Budget{MaxDepth: 2})
	var over *engine.GameOverError
	if !errors.As(err, &over) || over.Status != engine.Checkmate {
		t.Fatalf("got %v", err)
	}
}
