package render

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/withprimer/lila-gif/internal/board"
	"github.com/withprimer/lila-gif/internal/theme"
)

func testTheme(t *testing.T) *theme.Theme {
	t.Helper()
	themes, err := theme.NewThemes()
	if err != nil {
		t.Fatalf("NewThemes: %v", err)
	}
	return themes.Get(theme.BoardBrown, theme.PieceCburnett)
}

func mustSquare(t *testing.T, name string) board.Square {
	t.Helper()
	sq, err := board.ParseSquare(name)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", name, err)
	}
	return sq
}

func frameWith(t *testing.T, pieces map[string]board.Piece) Frame {
	t.Helper()
	var f Frame
	for name, p := range pieces {
		f.Board.Put(mustSquare(t, name), p)
	}
	return f
}

func collect(t *testing.T, r *Render) ([]byte, int) {
	t.Helper()
	var out []byte
	chunks := 0
	for {
		chunk, ok := r.Next()
		if !ok {
			break
		}
		out = append(out, chunk...)
		chunks++
	}
	return out, chunks
}

func TestStillImageStructureAndDeterminism(t *testing.T) {
	th := testTheme(t)
	pieces := map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
		"e8": {Role: board.King, Color: board.Black},
		"d4": {Role: board.Queen, Color: board.White},
	}

	render := func() ([]byte, int) {
		r := NewImage(th, Options{}, frameWith(t, pieces))
		return collect(t, r)
	}

	out1, chunks := render()
	out2, _ := render()
	if !bytes.Equal(out1, out2) {
		t.Fatalf("repeated renders differ")
	}
	if chunks != 2 {
		t.Fatalf("still image produced %d chunks, want 2", chunks)
	}

	g, err := gif.DecodeAll(bytes.NewReader(out1))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(g.Image) != 1 {
		t.Fatalf("frames = %d, want 1", len(g.Image))
	}
	if g.Config.Width != 720 || g.Config.Height != 720 {
		t.Fatalf("screen = %dx%d", g.Config.Width, g.Config.Height)
	}
	b := g.Image[0].Bounds()
	if b.Dx() != 720 || b.Dy() != 720 {
		t.Fatalf("first frame bounds = %v, want full canvas", b)
	}
}

func TestFirstFrameFullCanvasEvenWhenEmpty(t *testing.T) {
	th := testTheme(t)
	r := NewImage(th, Options{}, Frame{})
	out, _ := collect(t, r)
	g, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	b := g.Image[0].Bounds()
	if b.Dx() != 720 || b.Dy() != 720 {
		t.Fatalf("empty board first frame bounds = %v", b)
	}
}

func TestTerminationIsIdempotent(t *testing.T) {
	th := testTheme(t)
	r := NewImage(th, Options{}, Frame{})
	collect(t, r)
	for i := 0; i < 5; i++ {
		if chunk, ok := r.Next(); ok || chunk != nil {
			t.Fatalf("pull %d after completion produced output", i)
		}
	}
}

func TestDiffMinimalitySingleSquare(t *testing.T) {
	th := testTheme(t)
	before := map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
		"e8": {Role: board.King, Color: board.Black},
		"d4": {Role: board.Knight, Color: board.White},
	}
	after := map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
		"e8": {Role: board.King, Color: board.Black},
	}

	cases := []struct {
		orientation board.Orientation
		left, top   int
	}{
		// d4: file 3, rank 3.
		{board.OrientWhite, 3 * 90, 4 * 90},
		{board.OrientBlack, 4 * 90, 3 * 90},
	}
	for _, c := range cases {
		r := NewAnimation(th, Options{Orientation: c.orientation}, []Frame{
			frameWith(t, before),
			frameWith(t, after),
		})
		out, _ := collect(t, r)
		g, err := gif.DecodeAll(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("DecodeAll: %v", err)
		}
		// Two frames plus the trailing filler frame.
		if len(g.Image) != 3 {
			t.Fatalf("frames = %d, want 3", len(g.Image))
		}
		b := g.Image[1].Bounds()
		if b.Min.X != c.left || b.Min.Y != c.top || b.Dx() != 90 || b.Dy() != 90 {
			t.Fatalf("orientation %v: diff bounds = %v, want 90x90 at (%d,%d)",
				c.orientation, b, c.left, c.top)
		}
	}
}

func TestNoChangeFrameClampsToOneTransparentTile(t *testing.T) {
	th := testTheme(t)
	pieces := map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
	}
	r := NewAnimation(th, Options{}, []Frame{
		frameWith(t, pieces),
		frameWith(t, pieces),
	})
	out, _ := collect(t, r)
	g, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	b := g.Image[1].Bounds()
	if b.Min.X != 0 || b.Min.Y != 0 || b.Dx() != 90 || b.Dy() != 90 {
		t.Fatalf("no-change bounds = %v, want 90x90 at origin", b)
	}
	transparent := th.TransparentColor()
	for _, v := range g.Image[1].Pix {
		if v != transparent {
			t.Fatalf("no-change frame has non-transparent pixel %d", v)
		}
	}
}

// The documented example: three frames with delays 50, 10, 50, where the
// second transition is the move a2a4. The second frame's rectangle spans
// both changed tiles and the untouched tile between them stays transparent;
// the filler frame runs for one centisecond at full canvas.
func TestAnimationDelayAndBoundingBoxScenario(t *testing.T) {
	th := testTheme(t)
	f1 := frameWith(t, map[string]board.Piece{
		"a2": {Role: board.Pawn, Color: board.White},
		"e1": {Role: board.King, Color: board.White},
		"e8": {Role: board.King, Color: board.Black},
	})
	f1.Delay, f1.HasDelay = 50, true
	f2 := frameWith(t, map[string]board.Piece{
		"a4": {Role: board.Pawn, Color: board.White},
		"e1": {Role: board.King, Color: board.White},
		"e8": {Role: board.King, Color: board.Black},
	})
	f2.Highlighted = mustSquare(t, "a2").Bit() | mustSquare(t, "a4").Bit()
	f2.Delay, f2.HasDelay = 10, true
	f3 := f2
	f3.Delay = 50

	r := NewAnimation(th, Options{}, []Frame{f1, f2, f3})
	out, chunks := collect(t, r)
	if chunks != 4 {
		t.Fatalf("chunks = %d, want 4", chunks)
	}
	g, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(g.Image) != 4 {
		t.Fatalf("frames = %d, want 3 + filler", len(g.Image))
	}
	wantDelays := []int{50, 10, 50, 1}
	for i, want := range wantDelays {
		if g.Delay[i] != want {
			t.Fatalf("delay[%d] = %d, want %d", i, g.Delay[i], want)
		}
	}

	// a2 is (0,6), a4 is (0,4) under white orientation: one column, three
	// ranks, a3 untouched between them.
	b := g.Image[1].Bounds()
	if b.Min.X != 0 || b.Min.Y != 4*90 || b.Dx() != 90 || b.Dy() != 3*90 {
		t.Fatalf("move bounds = %v", b)
	}
	transparent := th.TransparentColor()
	mid := g.Image[1]
	// Center of the a3 tile, which did not change.
	if got := mid.ColorIndexAt(45, 5*90+45); got != transparent {
		t.Fatalf("a3 tile pixel = %d, want transparent %d", got, transparent)
	}
	// The a4 tile carries the moved pawn, so it is not all transparent.
	opaque := false
	for v := 4 * 90; v < 5*90 && !opaque; v++ {
		for u := 0; u < 90; u++ {
			if mid.ColorIndexAt(u, v) != transparent {
				opaque = true
				break
			}
		}
	}
	if !opaque {
		t.Fatalf("a4 tile fully transparent")
	}

	// The filler frame is full canvas, uniformly the bar color.
	last := g.Image[3]
	if lb := last.Bounds(); lb.Dx() != 720 || lb.Dy() != 720 {
		t.Fatalf("filler bounds = %v", lb)
	}
	bar := th.BarColor()
	for i, v := range last.Pix {
		if v != bar {
			t.Fatalf("filler pixel %d = %d, want bar color %d", i, v, bar)
		}
	}
	if g.LoopCount != 0 {
		t.Fatalf("loop count = %d", g.LoopCount)
	}
}

func TestPlayerBarsOffsetAndCanvas(t *testing.T) {
	th := testTheme(t)
	f1 := frameWith(t, map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
		"d4": {Role: board.Rook, Color: board.Black},
	})
	f2 := frameWith(t, map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
	})
	r := NewAnimation(th, Options{Bars: true}, []Frame{f1, f2})
	out, _ := collect(t, r)
	g, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if g.Config.Width != 720 || g.Config.Height != 840 {
		t.Fatalf("screen = %dx%d, want 720x840", g.Config.Width, g.Config.Height)
	}

	first := g.Image[0]
	bar := th.BarColor()
	for y := 0; y < 60; y += 15 {
		for x := 0; x < 720; x += 90 {
			if got := first.ColorIndexAt(x, y); got != bar {
				t.Fatalf("top bar pixel (%d,%d) = %d, want %d", x, y, got, bar)
			}
		}
	}
	for y := 780; y < 840; y += 15 {
		if got := first.ColorIndexAt(0, y); got != bar {
			t.Fatalf("bottom bar pixel (0,%d) = %d, want %d", y, got, bar)
		}
	}

	// d4 is (3,4) on the board; the bars push the sub-image down 60px.
	b := g.Image[1].Bounds()
	if b.Min.X != 3*90 || b.Min.Y != 4*90+60 {
		t.Fatalf("diff bounds with bars = %v", b)
	}
}

func TestCommentEmission(t *testing.T) {
	th := testTheme(t)
	out, _ := collect(t, NewImage(th, Options{}, Frame{}))
	if !bytes.Contains(out, []byte(defaultComment)) {
		t.Fatalf("default comment missing")
	}

	out, _ = collect(t, NewImage(th, Options{Comment: "custom note"}, Frame{}))
	if !bytes.Contains(out, []byte("custom note")) {
		t.Fatalf("custom comment missing")
	}
	if bytes.Contains(out, []byte(defaultComment)) {
		t.Fatalf("default comment emitted alongside custom one")
	}
}

func TestCheckedKingUsesAlternateSprite(t *testing.T) {
	th := testTheme(t)
	base := map[string]board.Piece{
		"e1": {Role: board.King, Color: board.White},
	}
	plain := frameWith(t, base)
	checked := frameWith(t, base)
	checked.Checked = mustSquare(t, "e1").Bit()

	outPlain, _ := collect(t, NewImage(th, Options{}, plain))
	outChecked, _ := collect(t, NewImage(th, Options{}, checked))
	if bytes.Equal(outPlain, outChecked) {
		t.Fatalf("check state did not change the output")
	}
}
