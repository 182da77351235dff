// Package render turns a sequence of board frames into GIF chunks. A Render
// is a pull-driven state machine: every call to Next composes the minimal
// changed region against the previous frame and returns one self-contained
// block of the output file, so callers can stream the image without ever
// holding all of it in memory.
package render

import (
	"bytes"

	"github.com/withprimer/lila-gif/internal/board"
	"github.com/withprimer/lila-gif/internal/gifenc"
	"github.com/withprimer/lila-gif/internal/theme"
)

// defaultComment is attached when the request supplies none.
const defaultComment = "https://github.com/withprimer/lila-gif"

// Frame is one board state to draw. Highlighted holds at most the two
// squares of the last move, Checked at most the square of a checked king.
type Frame struct {
	Board       board.Board
	Highlighted board.Bitboard
	Checked     board.Bitboard
	Delay       uint16
	HasDelay    bool
}

// diff returns the squares whose appearance differs between the two frames:
// any difference in occupancy, highlight or check state.
func (f *Frame) diff(prev *Frame) board.Bitboard {
	return (prev.Checked ^ f.Checked) |
		(prev.Highlighted ^ f.Highlighted) |
		prev.Board.Diff(&f.Board)
}

// Options carry the request-level rendering knobs.
type Options struct {
	Orientation board.Orientation
	Comment     string
	// Bars reserves space above and below the board for player name bars.
	Bars bool
}

type state uint8

const (
	statePreamble state = iota
	stateFrame
	stateComplete
)

// Render owns the scratch buffer and the remaining frame queue for one
// request. It is not safe for concurrent use; every request gets its own.
type Render struct {
	theme       *theme.Theme
	state       state
	buffer      []uint8
	comment     string
	bars        bool
	orientation board.Orientation
	frames      []Frame
	prev        Frame
	kork        bool
}

// NewImage builds a single-frame render.
func NewImage(t *theme.Theme, opts Options, frame Frame) *Render {
	r := newRender(t, opts)
	r.frames = []Frame{frame}
	return r
}

// NewAnimation builds a multi-frame render. The trailing kork frame is
// appended on exhaustion so viewers that drop the last frame still show the
// final position.
func NewAnimation(t *theme.Theme, opts Options, frames []Frame) *Render {
	r := newRender(t, opts)
	r.frames = frames
	r.kork = true
	return r
}

func newRender(t *theme.Theme, opts Options) *Render {
	r := &Render{
		theme:       t,
		state:       statePreamble,
		comment:     opts.Comment,
		bars:        opts.Bars,
		orientation: opts.Orientation,
	}
	r.buffer = make([]uint8, t.Width()*r.canvasHeight())
	return r
}

// canvasHeight is the logical screen height: the board plus both name bars
// when present.
func (r *Render) canvasHeight() int {
	h := r.theme.Height()
	if r.bars {
		h += 2 * r.theme.BarHeight()
	}
	return h
}

// Next produces the next chunk of the file, or (nil, false) once the
// trailer has been emitted. Chunks concatenated in pull order form a
// complete GIF.
func (r *Render) Next() ([]byte, bool) {
	var buf bytes.Buffer
	e := gifenc.NewEncoder(&buf)

	switch r.state {
	case statePreamble:
		r.preamble(e)
	case stateFrame:
		r.frame(e)
	case stateComplete:
		return nil, false
	}
	return buf.Bytes(), true
}

func (r *Render) preamble(e *gifenc.Encoder) {
	width := r.theme.Width()
	height := r.canvasHeight()

	e.Header()
	e.LogicalScreenDesc(width, height, r.theme.PaletteBits())
	e.GlobalColorTable(r.theme.Palette(), r.theme.PaletteBits())
	e.LoopForever()

	comment := r.comment
	if comment == "" {
		comment = defaultComment
	}
	if comment != "" {
		e.Comment([]byte(comment))
	}

	var frame Frame
	if len(r.frames) > 0 {
		frame = r.frames[0]
		r.frames = r.frames[1:]
	}

	if frame.HasDelay {
		e.GraphicControl(gifenc.GraphicControl{DelayCS: frame.Delay})
	}

	r.composeDiff(nil, &frame)
	if r.bars {
		r.layoutBars()
	}

	e.ImageDesc(0, 0, width, height)
	e.ImageData(r.buffer[:width*height], r.theme.PaletteBits())

	r.prev = frame
	r.state = stateFrame
}

// layoutBars moves the freshly composed board below the top bar and fills
// both bar areas with the theme's bar color.
func (r *Render) layoutBars() {
	width := r.theme.Width()
	barRows := r.theme.BarHeight()
	boardRows := r.theme.Height()
	for row := boardRows - 1; row >= 0; row-- {
		copy(r.buffer[(row+barRows)*width:(row+barRows+1)*width],
			r.buffer[row*width:(row+1)*width])
	}
	fill(r.buffer[:barRows*width], r.theme.BarColor())
	fill(r.buffer[(barRows+boardRows)*width:(barRows*2+boardRows)*width], r.theme.BarColor())
}

func (r *Render) frame(e *gifenc.Encoder) {
	if len(r.frames) > 0 {
		next := r.frames[0]
		r.frames = r.frames[1:]

		gc := gifenc.GraphicControl{
			Disposal:         gifenc.DisposalKeep,
			TransparentIndex: r.theme.TransparentColor(),
			HasTransparency:  true,
		}
		if next.HasDelay {
			gc.DelayCS = next.Delay
		}
		e.GraphicControl(gc)

		left, top, w, h := r.composeDiff(&r.prev, &next)
		if r.bars {
			top += r.theme.BarHeight()
		}

		e.ImageDesc(left, top, w, h)
		e.ImageData(r.buffer[:w*h], r.theme.PaletteBits())

		r.prev = next
		return
	}

	if r.kork {
		// One extra short frame so viewers that truncate the visually last
		// frame still display the final position.
		e.GraphicControl(gifenc.GraphicControl{
			Disposal:         gifenc.DisposalKeep,
			TransparentIndex: r.theme.TransparentColor(),
			HasTransparency:  true,
			DelayCS:          1,
		})
		width := r.theme.Width()
		height := r.canvasHeight()
		e.ImageDesc(0, 0, width, height)
		fill(r.buffer[:width*height], r.theme.BarColor())
		e.ImageData(r.buffer[:width*height], r.theme.PaletteBits())
	}

	e.Trailer()
	r.state = stateComplete
}

// composeDiff draws the squares that changed between prev and cur into the
// scratch buffer, packed with a row stride equal to the rectangle width,
// and returns the rectangle in board pixels. A nil prev means the first
// frame: every square is drawn and the rectangle is the whole board. An
// empty diff degenerates to the single tile at the origin.
func (r *Render) composeDiff(prev, cur *Frame) (left, top, width, height int) {
	diff := board.FullBB
	if prev != nil {
		diff = cur.diff(prev)
	}

	xMin, yMin, xMax, yMax := 0, 0, 0, 0
	first := true
	diff.ForEach(func(sq board.Square) {
		x, y := r.orientation.X(sq), r.orientation.Y(sq)
		if first {
			xMin, xMax, yMin, yMax = x, x, y, y
			first = false
			return
		}
		xMin = min(xMin, x)
		xMax = max(xMax, x)
		yMin = min(yMin, y)
		yMax = max(yMax, y)
	})

	square := r.theme.Square()
	width = (xMax - xMin + 1) * square
	height = (yMax - yMin + 1) * square

	if prev != nil {
		// Squares inside the rectangle that did not actually change must
		// resolve to "keep previous" under the transparency rule.
		fill(r.buffer[:width*height], r.theme.TransparentColor())
	}

	diff.ForEach(func(sq board.Square) {
		piece, ok := cur.Board.PieceAt(sq)
		key := theme.SpriteKey{
			Piece:      piece,
			HasPiece:   ok,
			DarkSquare: sq.IsDark(),
			Highlight:  cur.Highlighted.Contains(sq),
			Check:      cur.Checked.Contains(sq),
		}
		x := (r.orientation.X(sq) - xMin) * square
		y := (r.orientation.Y(sq) - yMin) * square
		r.theme.DrawTile(r.buffer, width, x, y, key)
	})

	return xMin * square, yMin * square, width, height
}

func fill(s []uint8, v uint8) {
	for i := range s {
		s[i] = v
	}
}
