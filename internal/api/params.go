// Package api parses request parameters into validated render inputs. All
// notation parsing happens here; the renderer itself only ever sees typed
// frames, so a malformed request is rejected before any output is produced.
package api

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/withprimer/lila-gif/internal/board"
	"github.com/withprimer/lila-gif/internal/render"
	"github.com/withprimer/lila-gif/internal/theme"
)

var ErrNoFrames = errors.New("animation request has no frames")

// ImageParams are the query parameters of a still image request, still in
// wire form.
type ImageParams struct {
	FEN         string
	Theme       string
	Piece       string
	Orientation string
	LastMove    string
	Check       string
	Comment     string
	White       string
	Black       string
}

// GameParams is the JSON body of an animation request.
type GameParams struct {
	Theme       string        `json:"theme"`
	Piece       string        `json:"piece"`
	Orientation string        `json:"orientation"`
	Comment     string        `json:"comment"`
	White       string        `json:"white"`
	Black       string        `json:"black"`
	Delay       uint16        `json:"delay"`
	Frames      []FrameParams `json:"frames"`
}

// FrameParams is one animation frame in wire form. Delay overrides the
// request-level default when present.
type FrameParams struct {
	FEN      string  `json:"fen"`
	Delay    *uint16 `json:"delay,omitempty"`
	LastMove string  `json:"lastMove"`
	Check    string  `json:"check"`
}

// DefaultDelayCS is the per-frame delay applied when neither the request
// nor the frame carries one.
const DefaultDelayCS = 50

// NewImageRender validates p and builds a single-frame render.
func NewImageRender(themes *theme.Themes, p ImageParams) (*render.Render, error) {
	t, opts, err := parseCommon(themes, p.Theme, p.Piece, p.Orientation, p.Comment, p.White, p.Black)
	if err != nil {
		return nil, err
	}
	frame, err := parseFrame(p.FEN, p.LastMove, p.Check, nil)
	if err != nil {
		return nil, err
	}
	return render.NewImage(t, opts, frame), nil
}

// NewAnimationRender validates p and builds a multi-frame render. Every
// frame ends up with an explicit delay, falling back to the request default.
func NewAnimationRender(themes *theme.Themes, p GameParams) (*render.Render, error) {
	if len(p.Frames) == 0 {
		return nil, ErrNoFrames
	}
	t, opts, err := parseCommon(themes, p.Theme, p.Piece, p.Orientation, p.Comment, p.White, p.Black)
	if err != nil {
		return nil, err
	}

	defaultDelay := p.Delay
	if defaultDelay == 0 {
		defaultDelay = DefaultDelayCS
	}
	frames := make([]render.Frame, 0, len(p.Frames))
	for i, fp := range p.Frames {
		delay := defaultDelay
		if fp.Delay != nil {
			delay = *fp.Delay
		}
		frame, err := parseFrame(fp.FEN, fp.LastMove, fp.Check, &delay)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, frame)
	}
	return render.NewAnimation(t, opts, frames), nil
}

func parseCommon(themes *theme.Themes, skin, set, orientation, comment, white, black string) (*theme.Theme, render.Options, error) {
	bs, err := theme.ParseBoardSkin(skin)
	if err != nil {
		return nil, render.Options{}, err
	}
	ps, err := theme.ParsePieceSet(set)
	if err != nil {
		return nil, render.Options{}, err
	}
	o, err := parseOrientation(orientation)
	if err != nil {
		return nil, render.Options{}, err
	}
	opts := render.Options{
		Orientation: o,
		Comment:     comment,
		Bars:        white != "" || black != "",
	}
	return themes.Get(bs, ps), opts, nil
}

func parseOrientation(s string) (board.Orientation, error) {
	switch s {
	case "", "white":
		return board.OrientWhite, nil
	case "black":
		return board.OrientBlack, nil
	default:
		return 0, fmt.Errorf("unknown orientation %q", s)
	}
}

func parseFrame(fen, lastMove, check string, delay *uint16) (render.Frame, error) {
	b, turn, err := parseFEN(fen)
	if err != nil {
		return render.Frame{}, err
	}
	highlighted, err := highlightMove(lastMove)
	if err != nil {
		return render.Frame{}, err
	}
	checked, err := parseCheckSquare(check, &b, turn)
	if err != nil {
		return render.Frame{}, err
	}
	frame := render.Frame{
		Board:       b,
		Highlighted: highlighted,
		Checked:     checked,
	}
	if delay != nil {
		frame.Delay = *delay
		frame.HasDelay = true
	}
	return frame, nil
}

var (
	chessFiles = [8]nchess.File{
		nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD,
		nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH,
	}
	chessRanks = [8]nchess.Rank{
		nchess.Rank1, nchess.Rank2, nchess.Rank3, nchess.Rank4,
		nchess.Rank5, nchess.Rank6, nchess.Rank7, nchess.Rank8,
	}
)

// parseFEN captures a position's occupancy into the renderer's bitboards.
// An empty string is the standard starting position.
func parseFEN(fen string) (board.Board, board.Color, error) {
	var game *nchess.Game
	if strings.TrimSpace(fen) == "" {
		game = nchess.NewGame()
	} else {
		option, err := nchess.FEN(fen)
		if err != nil {
			return board.Board{}, 0, fmt.Errorf("invalid fen %q: %w", fen, err)
		}
		game = nchess.NewGame(option)
	}

	pos := game.Position()
	cb := pos.Board()
	var b board.Board
	for ri, rank := range chessRanks {
		for fi, file := range chessFiles {
			piece := cb.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			role, err := convertRole(piece.Type())
			if err != nil {
				return board.Board{}, 0, err
			}
			color := board.Black
			if piece.Color() == nchess.White {
				color = board.White
			}
			b.Put(board.NewSquare(fi, ri), board.Piece{Role: role, Color: color})
		}
	}

	turn := board.White
	if pos.Turn() == nchess.Black {
		turn = board.Black
	}
	return b, turn, nil
}

func convertRole(t nchess.PieceType) (board.Role, error) {
	switch t {
	case nchess.Pawn:
		return board.Pawn, nil
	case nchess.Knight:
		return board.Knight, nil
	case nchess.Bishop:
		return board.Bishop, nil
	case nchess.Rook:
		return board.Rook, nil
	case nchess.Queen:
		return board.Queen, nil
	case nchess.King:
		return board.King, nil
	default:
		return 0, fmt.Errorf("unknown piece type %v", t)
	}
}

// highlightMove maps a UCI move to its highlight squares: origin and
// destination for a normal move, destination only for a drop like "Q@e7".
func highlightMove(uci string) (board.Bitboard, error) {
	uci = strings.TrimSpace(uci)
	if uci == "" {
		return board.EmptyBB, nil
	}
	if i := strings.IndexByte(uci, '@'); i >= 0 {
		to, err := board.ParseSquare(uci[i+1:])
		if err != nil {
			return 0, fmt.Errorf("invalid move %q: %w", uci, err)
		}
		return to.Bit(), nil
	}
	if len(uci) < 4 || len(uci) > 5 {
		return 0, fmt.Errorf("invalid move %q", uci)
	}
	from, err := board.ParseSquare(uci[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid move %q: %w", uci, err)
	}
	to, err := board.ParseSquare(uci[2:4])
	if err != nil {
		return 0, fmt.Errorf("invalid move %q: %w", uci, err)
	}
	return from.Bit() | to.Bit(), nil
}

// parseCheckSquare resolves the check parameter: a square name marks that
// square, "yes" marks the king of the side to move, anything falsy marks
// nothing.
func parseCheckSquare(s string, b *board.Board, turn board.Color) (board.Bitboard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "false", "0":
		return board.EmptyBB, nil
	case "yes", "true", "1":
		if sq, ok := b.KingOf(turn); ok {
			return sq.Bit(), nil
		}
		return board.EmptyBB, nil
	default:
		sq, err := board.ParseSquare(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return 0, fmt.Errorf("invalid check parameter: %w", err)
		}
		return sq.Bit(), nil
	}
}
