// Package theme holds the precomputed sprite atlases the renderer copies
// tiles from. Every (board skin, piece set) combination has one immutable
// Theme, decoded once at startup from an embedded sprite sheet and shared
// read-only across requests.
package theme

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/gif"

	"github.com/withprimer/lila-gif/internal/board"
)

//go:embed assets/manifest.yaml assets/sprites/*.gif
var assetFiles embed.FS

const (
	// SquareSize is the pixel width and height of one board square.
	SquareSize = 90
	// BarHeightPx is the height of one player name bar.
	BarHeightPx = 60

	// colorWidth is the width of the reserved color strips in row 0 of the
	// sprite sheet.
	colorWidth = SquareSize * 2 / 3
)

// SpriteKey addresses one tile of the sprite sheet.
type SpriteKey struct {
	Piece      board.Piece
	HasPiece   bool
	DarkSquare bool
	Highlight  bool
	Check      bool
}

// Column returns the sheet column: piece color, highlight and square shade
// each contribute one bit.
func (k SpriteKey) Column() int {
	x := 0
	if k.HasPiece && k.Piece.Color == board.White {
		x += 4
	}
	if k.Highlight {
		x += 2
	}
	if k.DarkSquare {
		x++
	}
	return x
}

// Row returns the sheet row: the checked-king row for a king under check,
// otherwise the piece role, otherwise the empty-square row.
func (k SpriteKey) Row() int {
	switch {
	case !k.HasPiece:
		return 0
	case k.Check && k.Piece.Role == board.King:
		return 7
	default:
		return int(k.Piece.Role)
	}
}

// Theme is one decoded sprite atlas plus its palette.
type Theme struct {
	pix         []uint8 // 8*SquareSize rows of 8*SquareSize palette indices
	palette     []byte  // packed RGB triples
	paletteBits int
}

// newTheme decodes a single-frame indexed sprite sheet. The sheet must be
// exactly 8x8 tiles; anything else is a broken build asset.
func newTheme(data []byte) (*Theme, error) {
	img, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode sprite sheet: %w", err)
	}
	p, ok := img.(*image.Paletted)
	if !ok {
		return nil, fmt.Errorf("sprite sheet is not palette-indexed")
	}
	const side = SquareSize * 8
	if p.Bounds().Dx() != side || p.Bounds().Dy() != side {
		return nil, fmt.Errorf("sprite sheet is %dx%d, want %dx%d",
			p.Bounds().Dx(), p.Bounds().Dy(), side, side)
	}
	if len(p.Palette) == 0 || len(p.Palette) > 256 {
		return nil, fmt.Errorf("sprite sheet palette has %d colors", len(p.Palette))
	}

	pix := make([]uint8, side*side)
	for y := 0; y < side; y++ {
		copy(pix[y*side:(y+1)*side], p.Pix[y*p.Stride:y*p.Stride+side])
	}

	bits := 1
	for 1<<bits < len(p.Palette) {
		bits++
	}
	palette := make([]byte, 0, 3*len(p.Palette))
	for _, c := range p.Palette {
		r, g, b, _ := c.RGBA()
		palette = append(palette, byte(r>>8), byte(g>>8), byte(b>>8))
	}

	return &Theme{pix: pix, palette: palette, paletteBits: bits}, nil
}

func (t *Theme) Square() int { return SquareSize }

// Width and Height are the dimensions of the playing area canvas.
func (t *Theme) Width() int  { return SquareSize * 8 }
func (t *Theme) Height() int { return SquareSize * 8 }

func (t *Theme) BarHeight() int { return BarHeightPx }

// Palette returns the packed RGB global color table.
func (t *Theme) Palette() []byte { return t.palette }

// PaletteBits returns log2 of the declared color table size.
func (t *Theme) PaletteBits() int { return t.paletteBits }

// BarColor is the palette index used to fill player bars and the kork
// frame. It is read from a reserved pixel of the sheet.
func (t *Theme) BarColor() uint8 {
	return t.pix[SquareSize*4]
}

// TransparentColor is the palette index reserved to mean "keep the previous
// frame's pixel" in incremental frames.
func (t *Theme) TransparentColor() uint8 {
	return t.pix[SquareSize*4+colorWidth*5]
}

// DrawTile copies the SquareSize x SquareSize tile selected by key into dst
// at pixel position (x, y), where dst has the given row stride.
func (t *Theme) DrawTile(dst []uint8, stride, x, y int, key SpriteKey) {
	srcX := key.Column() * SquareSize
	srcY := key.Row() * SquareSize
	for row := 0; row < SquareSize; row++ {
		src := t.pix[(srcY+row)*t.Width()+srcX:]
		copy(dst[(y+row)*stride+x:(y+row)*stride+x+SquareSize], src[:SquareSize])
	}
}
