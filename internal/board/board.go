// Package board holds the bitboard-backed occupancy model the renderer
// diffs against. A Board is a snapshot: it is filled once from a parsed
// position and never mutated afterwards.
package board

import (
	"fmt"
	"math/bits"
)

// Bitboard is a set of squares, one bit per square, a1 = bit 0.
type Bitboard uint64

const (
	EmptyBB Bitboard = 0
	FullBB  Bitboard = ^EmptyBB
)

func (b Bitboard) Contains(sq Square) bool { return b&sq.Bit() != 0 }

func (b Bitboard) With(sq Square) Bitboard { return b | sq.Bit() }

func (b Bitboard) Count() int { return bits.OnesCount64(uint64(b)) }

// ForEach visits every set square in ascending order.
func (b Bitboard) ForEach(fn func(Square)) {
	for v := uint64(b); v != 0; v &= v - 1 {
		fn(Square(bits.TrailingZeros64(v)))
	}
}

// Square indexes the board in [0, 64), file-major within each rank.
type Square uint8

func NewSquare(file, rank int) Square { return Square(rank*8 + file) }

// ParseSquare reads coordinate notation like "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

func (sq Square) File() int { return int(sq) & 7 }

func (sq Square) Rank() int { return int(sq) >> 3 }

func (sq Square) Bit() Bitboard { return Bitboard(1) << sq }

// IsDark reports whether the square has the dark background color.
func (sq Square) IsDark() bool { return (sq.File()+sq.Rank())%2 == 0 }

func (sq Square) String() string {
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// Color of a piece.
type Color uint8

const (
	White Color = iota
	Black
)

// Role of a piece. Values match the sprite sheet rows, pawn = 1 through
// king = 6.
type Role uint8

const (
	Pawn Role = iota + 1
	Knight
	Bishop
	Rook
	Queen
	King
)

var roles = [6]Role{Pawn, Knight, Bishop, Rook, Queen, King}

type Piece struct {
	Role  Role
	Color Color
}

// Board is the occupancy partition of one position: one bitboard per role
// and one per color.
type Board struct {
	byRole  [6]Bitboard
	byColor [2]Bitboard
}

// Put places a piece. Callers are responsible for not double-filling a
// square; parsed positions never do.
func (b *Board) Put(sq Square, p Piece) {
	b.byRole[p.Role-Pawn] |= sq.Bit()
	b.byColor[p.Color] |= sq.Bit()
}

// PieceAt returns the piece on sq, if any.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	if !b.Occupied().Contains(sq) {
		return Piece{}, false
	}
	color := Black
	if b.byColor[White].Contains(sq) {
		color = White
	}
	for _, r := range roles {
		if b.byRole[r-Pawn].Contains(sq) {
			return Piece{Role: r, Color: color}, true
		}
	}
	return Piece{}, false
}

func (b *Board) ByRole(r Role) Bitboard { return b.byRole[r-Pawn] }

func (b *Board) ByColor(c Color) Bitboard { return b.byColor[c] }

func (b *Board) Occupied() Bitboard { return b.byColor[White] | b.byColor[Black] }

// KingOf returns the square of c's king, if present.
func (b *Board) KingOf(c Color) (Square, bool) {
	kings := b.byRole[King-Pawn] & b.byColor[c]
	if kings == 0 {
		return 0, false
	}
	return Square(bits.TrailingZeros64(uint64(kings))), true
}

// Diff returns the squares on which the two boards disagree in any of the
// role or color partitions.
func (b *Board) Diff(other *Board) Bitboard {
	d := b.byColor[White] ^ other.byColor[White]
	for i := range b.byRole {
		d |= b.byRole[i] ^ other.byRole[i]
	}
	return d
}

// Orientation selects which side of the board faces the viewer.
type Orientation uint8

const (
	OrientWhite Orientation = iota
	OrientBlack
)

// X is the canvas tile column of sq under the orientation.
func (o Orientation) X(sq Square) int {
	if o == OrientBlack {
		return 7 - sq.File()
	}
	return sq.File()
}

// Y is the canvas tile row of sq under the orientation. Rank 8 is at the
// top when white faces the viewer.
func (o Orientation) Y(sq Square) int {
	if o == OrientBlack {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}
