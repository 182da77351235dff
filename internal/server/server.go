// Package server exposes the renderer over HTTP. GIF responses are written
// chunk by chunk as the render state machine produces them, so large
// animations never materialize in memory.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/withprimer/lila-gif/internal/api"
	"github.com/withprimer/lila-gif/internal/gifcache"
	"github.com/withprimer/lila-gif/internal/obslog"
	"github.com/withprimer/lila-gif/internal/render"
	"github.com/withprimer/lila-gif/internal/theme"
)

const contentTypeGIF = "image/gif"

type Server struct {
	themes    *theme.Themes
	cache     *gifcache.Cache
	maxFrames int
	srv       *fasthttp.Server
}

func New(themes *theme.Themes, cache *gifcache.Cache, maxFrames int) *Server {
	s := &Server{themes: themes, cache: cache, maxFrames: maxFrames}
	s.srv = &fasthttp.Server{
		Handler:            s.handle,
		Name:               "lila-gif",
		MaxRequestBodySize: 4 << 20,
	}
	return s
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/image.gif":
		if !ctx.IsGet() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleImage(ctx)
	case "/game.gif":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleGame(ctx)
	case "/example.gif":
		s.handleExample(ctx)
	case "/health":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleImage(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	params := api.ImageParams{
		FEN:         string(args.Peek("fen")),
		Theme:       string(args.Peek("theme")),
		Piece:       string(args.Peek("piece")),
		Orientation: string(args.Peek("orientation")),
		LastMove:    string(args.Peek("lastMove")),
		Check:       string(args.Peek("check")),
		Comment:     string(args.Peek("comment")),
		White:       string(args.Peek("white")),
		Black:       string(args.Peek("black")),
	}
	reqID := uuid.NewString()

	key := gifcache.Key("image",
		params.FEN, params.Theme, params.Piece, params.Orientation,
		params.LastMove, params.Check, params.Comment, params.White, params.Black)
	if cached, err := s.cache.Get(ctx, key); err != nil {
		obslog.L().Warn("cache_get_error", zap.String("request_id", reqID), zap.Error(err))
	} else if cached != nil {
		ctx.SetContentType(contentTypeGIF)
		ctx.SetBody(cached)
		return
	}

	r, err := api.NewImageRender(s.themes, params)
	if err != nil {
		obslog.L().Info("bad_image_request", zap.String("request_id", reqID), zap.Error(err))
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	// Stills are bounded by one canvas, so collect, cache and reply in one
	// piece.
	var out []byte
	for {
		chunk, ok := r.Next()
		if !ok {
			break
		}
		out = append(out, chunk...)
	}
	if err := s.cache.Put(context.Background(), key, out); err != nil {
		obslog.L().Warn("cache_put_error", zap.String("request_id", reqID), zap.Error(err))
	}
	ctx.SetContentType(contentTypeGIF)
	ctx.SetBody(out)
	obslog.L().Debug("image_rendered",
		zap.String("request_id", reqID), zap.Int("bytes", len(out)))
}

func (s *Server) handleGame(ctx *fasthttp.RequestCtx) {
	var params api.GameParams
	if err := json.Unmarshal(ctx.PostBody(), &params); err != nil {
		ctx.Error("invalid json body: "+err.Error(), fasthttp.StatusBadRequest)
		return
	}
	if len(params.Frames) > s.maxFrames {
		ctx.Error("too many frames (max "+strconv.Itoa(s.maxFrames)+")", fasthttp.StatusBadRequest)
		return
	}
	reqID := uuid.NewString()

	r, err := api.NewAnimationRender(s.themes, params)
	if err != nil {
		obslog.L().Info("bad_game_request", zap.String("request_id", reqID), zap.Error(err))
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	s.stream(ctx, r)
	obslog.L().Debug("game_render_started",
		zap.String("request_id", reqID), zap.Int("frames", len(params.Frames)))
}

// handleExample renders a fixed short animation, useful as a smoke test.
func (s *Server) handleExample(ctx *fasthttp.RequestCtx) {
	params := api.GameParams{
		Frames: []api.FrameParams{
			{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
			{FEN: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", LastMove: "e2e4"},
			{FEN: "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", LastMove: "d7d5"},
			{FEN: "rnbqkbnr/ppp1pppp/8/3P4/8/8/PPPP1PPP/RNBQKBNR b KQkq - 0 2", LastMove: "e4d5"},
		},
	}
	r, err := api.NewAnimationRender(s.themes, params)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	s.stream(ctx, r)
}

// stream pulls chunks from the render inside the response body writer. A
// consumer that disconnects simply stops the pulls; the render is dropped
// with no cleanup needed.
func (s *Server) stream(ctx *fasthttp.RequestCtx, r *render.Render) {
	ctx.SetContentType(contentTypeGIF)
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for {
			chunk, ok := r.Next()
			if !ok {
				return
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}
