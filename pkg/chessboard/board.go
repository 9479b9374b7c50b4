// Package chessboard adapts github.com/notnil/chess positions to the search
// engine. Positions are immutable snapshots kept on a stack.
package chessboard

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/samber/lo"

	"mimir/pkg/engine"
	"mimir/pkg/eval"
)

// StartFEN is the standard starting position
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Move is a comparable move value. It is resolved against the legal moves of
// the position it is played in.
type Move struct {
	From  chess.Square
	To    chess.Square
	Promo chess.PieceType
}

// String returns the move in UCI notation
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promo != chess.NoPieceType {
		s += m.Promo.String()
	}
	return s
}

// MarshalText makes moves print as UCI in logs
func (m Move) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func moveOf(mv *chess.Move) Move {
	return Move{From: mv.S1(), To: mv.S2(), Promo: mv.Promo()}
}

type frame struct {
	pos     *chess.Position
	key     uint64
	clock   int // half moves since the last capture or pawn move
	ordered []Move
	moves   map[Move]*chess.Move
}

// Board is a game in progress. The zero value is not usable; create boards
// with New or FromFEN.
type Board struct {
	frames []frame
}

// New returns a board at the starting position
func New() *Board {
	b, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

// FromFEN returns a board at the position described by fen
func FromFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	pos := chess.NewGame(opt).Position()
	clock := 0
	if fields := strings.Fields(fen); len(fields) >= 5 {
		if clock, err = strconv.Atoi(fields[4]); err != nil {
			return nil, fmt.Errorf("parse fen half move clock %q: %w", fields[4], err)
		}
	}
	b := &Board{}
	b.frames = append(b.frames, newFrame(pos, clock))
	return b, nil
}

func newFrame(pos *chess.Position, clock int) frame {
	return frame{pos: pos, key: positionKey(pos), clock: clock}
}

// positionKey hashes everything that makes two positions the same for
// repetition purposes: placement, side to move, castling and a playable en
// passant capture.
func positionKey(pos *chess.Position) uint64 {
	h := fnv.New64a()
	placement, err := pos.Board().MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("chessboard: marshal board: %v", err))
	}
	h.Write(placement)
	h.Write([]byte{byte(pos.Turn()), byte(enPassantTarget(pos))})
	h.Write([]byte(pos.CastleRights().String()))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum)
}

// enPassantTarget returns the en passant square only if a pawn can capture
// onto it. notnil/chess records the square after every double push.
func enPassantTarget(pos *chess.Position) chess.Square {
	sq := pos.EnPassantSquare()
	if sq == chess.NoSquare {
		return sq
	}
	if lo.ContainsBy(pos.ValidMoves(), func(mv *chess.Move) bool { return mv.HasTag(chess.EnPassant) }) {
		return sq
	}
	return chess.NoSquare
}

func (b *Board) top() *frame {
	return &b.frames[len(b.frames)-1]
}

// resolve fills the move cache of the top frame
func (b *Board) resolve() *frame {
	f := b.top()
	if f.moves == nil {
		valid := f.pos.ValidMoves()
		f.moves = make(map[Move]*chess.Move, len(valid))
		f.ordered = make([]Move, 0, len(valid))
		for _, mv := range valid {
			m := moveOf(mv)
			f.moves[m] = mv
			f.ordered = append(f.ordered, m)
		}
	}
	return f
}

// LegalMoves returns a fresh slice of the legal moves in generation order
func (b *Board) LegalMoves() []Move {
	f := b.resolve()
	return append([]Move(nil), f.ordered...)
}

func (b *Board) lookup(m Move) *chess.Move {
	mv, ok := b.resolve().moves[m]
	if !ok {
		panic(fmt.Sprintf("chessboard: illegal move %v in %v", m, b.FEN()))
	}
	return mv
}

// Push plays m, which must be legal
func (b *Board) Push(m Move) {
	f := b.top()
	mv := b.lookup(m)
	clock := f.clock + 1
	if mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant) || f.pos.Board().Piece(mv.S1()).Type() == chess.Pawn {
		clock = 0
	}
	b.frames = append(b.frames, newFrame(f.pos.Update(mv), clock))
}

// Pop takes back the last move
func (b *Board) Pop() {
	if len(b.frames) <= 1 {
		panic("chessboard: pop without a pushed move")
	}
	b.frames = b.frames[:len(b.frames)-1]
}

// Status reports checkmate, stalemate, and draws by repetition, the fifty
// move rule or insufficient material
func (b *Board) Status() engine.Status {
	f := b.top()
	switch f.pos.Status() {
	case chess.Checkmate:
		return engine.Checkmate
	case chess.Stalemate:
		return engine.Stalemate
	}
	if f.clock >= 100 || b.repetitions() >= 3 || insufficientMaterial(f.pos.Board()) {
		return engine.Draw
	}
	return engine.Ongoing
}

// repetitions counts the occurrences of the current position since the last
// irreversible move
func (b *Board) repetitions() int {
	f := b.top()
	count := 1
	for i := len(b.frames) - 3; i >= 0 && i >= len(b.frames)-1-f.clock; i -= 2 {
		if b.frames[i].key == f.key {
			count++
		}
	}
	return count
}

func insufficientMaterial(board *chess.Board) bool {
	var minors, bishopColors [2]int
	for sq, p := range board.SquareMap() {
		switch p.Type() {
		case chess.King:
		case chess.Knight:
			minors[colorIndex(p.Color())]++
		case chess.Bishop:
			minors[colorIndex(p.Color())]++
			bishopColors[(int(sq.File())+int(sq.Rank()))%2]++
		default:
			return false
		}
	}
	total := minors[0] + minors[1]
	if total <= 1 {
		return true
	}
	// Bishops only, all on squares of one colour
	return total == bishopColors[0]+bishopColors[1] && (bishopColors[0] == 0 || bishopColors[1] == 0)
}

func colorIndex(c chess.Color) int {
	if c == chess.White {
		return 0
	}
	return 1
}

// Key identifies the position for the transposition table
func (b *Board) Key() uint64 {
	return b.top().key
}

// WhiteToMove reports whether White is the side to move
func (b *Board) WhiteToMove() bool {
	return b.top().pos.Turn() == chess.White
}

// IsCapture reports whether m captures, en passant included
func (b *Board) IsCapture(m Move) bool {
	mv := b.lookup(m)
	return mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant)
}

// IsPromotion reports whether m promotes a pawn
func (b *Board) IsPromotion(m Move) bool {
	return m.Promo != chess.NoPieceType
}

// GivesCheck reports whether m checks the opponent
func (b *Board) GivesCheck(m Move) bool {
	return b.lookup(m).HasTag(chess.Check)
}

var pieceKinds = map[chess.PieceType]eval.Piece{
	chess.Pawn:   eval.Pawn,
	chess.Knight: eval.Knight,
	chess.Bishop: eval.Bishop,
	chess.Rook:   eval.Rook,
	chess.Queen:  eval.Queen,
	chess.King:   eval.King,
}

// ForEachPiece calls fn for every piece on the board
func (b *Board) ForEachPiece(fn func(sq int, p eval.Piece, white bool)) {
	for sq, p := range b.top().pos.Board().SquareMap() {
		fn(int(sq), pieceKinds[p.Type()], p.Color() == chess.White)
	}
}

// FEN returns the current position in Forsyth-Edwards notation
func (b *Board) FEN() string {
	return b.top().pos.String()
}

// Draw renders the board for a terminal
func (b *Board) Draw() string {
	return b.top().pos.Board().Draw()
}

// Decode parses a UCI move in the current position
func (b *Board) Decode(uci string) (Move, error) {
	mv, err := chess.UCINotation{}.Decode(b.top().pos, uci)
	if err != nil {
		return Move{}, fmt.Errorf("decode %q: %w", uci, err)
	}
	m := moveOf(mv)
	if _, ok := b.resolve().moves[m]; !ok {
		return Move{}, fmt.Errorf("illegal move %q", uci)
	}
	return m, nil
}

// Encode writes m in UCI notation
func (b *Board) Encode(m Move) string {
	return chess.UCINotation{}.Encode(b.top().pos, b.lookup(m))
}

// Play validates and plays a UCI move, for input coming from outside the engine
func (b *Board) Play(uci string) error {
	m, err := b.Decode(uci)
	if err != nil {
		return err
	}
	b.Push(m)
	return nil
}

// Ply returns the number of moves played on this board
func (b *Board) Ply() int {
	return len(b.frames) - 1
}
