// Command spritegen regenerates the sprite sheets embedded in
// internal/theme. Each sheet is an 8x8 tile grid: row 0 holds the four
// empty-square backgrounds plus the reserved color strips, rows 1-6 the
// pieces, row 7 the checked kings. Piece glyphs are drawn procedurally, or
// rasterized from an SVG piece set directory when -pieces is given.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	stddraw "image/draw"
	"log"
	"os"
	"path/filepath"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	yaml "gopkg.in/yaml.v3"

	"github.com/withprimer/lila-gif/internal/theme"
)

const (
	square     = theme.SquareSize
	side       = square * 8
	colorWidth = square * 2 / 3
	supersample = 4
)

var skins = map[string][4]color.RGBA{
	"brown":  {rgb(0xf0d9b5), rgb(0xb58863), rgb(0xcdd16a), rgb(0xaaa23a)},
	"blue":   {rgb(0xdee3e6), rgb(0x8ca2ad), rgb(0xced26b), rgb(0xaaa23b)},
	"green":  {rgb(0xffffdd), rgb(0x86a666), rgb(0xcdd16a), rgb(0xaaa23a)},
	"purple": {rgb(0xe0d7e8), rgb(0x9f90b0), rgb(0xcdd16a), rgb(0xaaa23a)},
}

var pieceSets = []string{"cburnett", "merida", "alpha"}

var strips = [5]color.RGBA{
	rgb(0x262421), // bar fill
	rgb(0xbababa), // text
	rgb(0xbf811d), // title
	rgb(0xb72fc6), // bot
	rgb(0x706f6e), // dimmed text
}

var (
	sentinelColor   = rgb(0x00ff00)
	whitePieceColor = rgb(0xf0f0f0)
	blackPieceColor = rgb(0x101010)
	checkColor      = rgb(0xd02a2a)
)

const (
	idxSentinel = 9
	idxWhite    = 10
	idxBlack    = 11
	idxCheck    = 12
)

func rgb(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

type manifestEntry struct {
	Board  string `yaml:"board"`
	Pieces string `yaml:"pieces"`
	File   string `yaml:"file"`
}

type manifestFile struct {
	Sprites []manifestEntry `yaml:"sprites"`
}

func main() {
	out := flag.String("out", "internal/theme/assets", "output asset directory")
	piecesDir := flag.String("pieces", "", "directory of SVG piece sets (<set>/<wK|bQ|...>.svg); procedural glyphs when empty")
	flag.Parse()

	spriteDir := filepath.Join(*out, "sprites")
	if err := os.MkdirAll(spriteDir, 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	var manifest manifestFile
	for skin, colors := range skins {
		for _, set := range pieceSets {
			name := fmt.Sprintf("%s-%s.gif", skin, set)
			img, err := buildSheet(colors, set, *piecesDir)
			if err != nil {
				log.Fatalf("%s: %v", name, err)
			}
			f, err := os.Create(filepath.Join(spriteDir, name))
			if err != nil {
				log.Fatalf("create %s: %v", name, err)
			}
			if err := gif.Encode(f, img, nil); err != nil {
				log.Fatalf("encode %s: %v", name, err)
			}
			if err := f.Close(); err != nil {
				log.Fatalf("close %s: %v", name, err)
			}
			manifest.Sprites = append(manifest.Sprites, manifestEntry{
				Board: skin, Pieces: set, File: "sprites/" + name,
			})
			log.Printf("wrote %s", name)
		}
	}

	raw, err := yaml.Marshal(&manifest)
	if err != nil {
		log.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(*out, "manifest.yaml"), raw, 0o644); err != nil {
		log.Fatalf("write manifest: %v", err)
	}
}

func buildSheet(boardColors [4]color.RGBA, set, piecesDir string) (*image.Paletted, error) {
	pal := make(color.Palette, 0, 16)
	for _, c := range boardColors {
		pal = append(pal, c)
	}
	for _, c := range strips {
		pal = append(pal, c)
	}
	pal = append(pal, sentinelColor, whitePieceColor, blackPieceColor, checkColor)
	for len(pal) < 16 {
		pal = append(pal, color.RGBA{A: 0xff})
	}

	img := image.NewPaletted(image.Rect(0, 0, side, side), pal)

	// Column backgrounds: the four board colors repeat across the black and
	// white piece halves.
	for col := 0; col < 8; col++ {
		bg := uint8(col % 4)
		for y := 0; y < side; y++ {
			for x := 0; x < square; x++ {
				img.Pix[y*img.Stride+col*square+x] = bg
			}
		}
	}

	// Row 0, right half: reserved color strips and the transparent
	// sentinel, read back by the theme loader at fixed pixel positions.
	for y := 0; y < square; y++ {
		for i := 0; i < 5; i++ {
			for x := 0; x < colorWidth; x++ {
				img.Pix[y*img.Stride+square*4+colorWidth*i+x] = uint8(4 + i)
			}
		}
		for x := square*4 + colorWidth*5; x < side; x++ {
			img.Pix[y*img.Stride+x] = idxSentinel
		}
	}

	for col := 0; col < 8; col++ {
		pieceIdx := uint8(idxBlack)
		svgColor := "b"
		if col >= 4 {
			pieceIdx = idxWhite
			svgColor = "w"
		}
		for row := 1; row < 8; row++ {
			role := row
			if role > 6 {
				role = 6
			}
			var mask []bool
			if piecesDir != "" {
				m, err := svgMask(filepath.Join(piecesDir, set, svgColor+roleLetter(role)+".svg"))
				if err != nil {
					return nil, err
				}
				mask = m
			} else {
				mask = proceduralMask(set, role)
			}
			for v := 0; v < square; v++ {
				for u := 0; u < square; u++ {
					off := (row*square+v)*img.Stride + col*square + u
					if row == 7 && inCheckHalo(u, v) {
						img.Pix[off] = idxCheck
					}
					if mask[v*square+u] {
						img.Pix[off] = pieceIdx
					}
				}
			}
		}
	}
	return img, nil
}

func roleLetter(role int) string {
	return [...]string{"P", "N", "B", "R", "Q", "K"}[role-1]
}

func inCheckHalo(u, v int) bool {
	du, dv := u-45, v-45
	return du*du+dv*dv <= 40*40
}

// svgMask rasterizes one piece SVG supersampled, downsamples it with
// Catmull-Rom and thresholds the alpha channel into a tile coverage mask.
func svgMask(path string) ([]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open piece svg: %w", err)
	}
	defer f.Close()

	icon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", path, err)
	}
	big := square * supersample
	icon.SetTarget(0, 0, float64(big), float64(big))
	raster := image.NewRGBA(image.Rect(0, 0, big, big))
	stddraw.Draw(raster, raster.Bounds(), image.NewUniform(color.Transparent), image.Point{}, stddraw.Src)
	scanner := rasterx.NewScannerGV(big, big, raster, raster.Bounds())
	icon.Draw(rasterx.NewDasher(big, big, scanner), 1.0)

	tile := image.NewRGBA(image.Rect(0, 0, square, square))
	xdraw.CatmullRom.Scale(tile, tile.Bounds(), raster, raster.Bounds(), xdraw.Over, nil)

	mask := make([]bool, square*square)
	for v := 0; v < square; v++ {
		for u := 0; u < square; u++ {
			_, _, _, a := tile.At(u, v).RGBA()
			mask[v*square+u] = a >= 0x8000
		}
	}
	return mask, nil
}

// proceduralMask draws the built-in geometric glyphs. cburnett tiles are
// filled, merida tiles are outlined rings, alpha tiles are reduced fills.
func proceduralMask(set string, role int) []bool {
	mask := make([]bool, square*square)
	for v := 0; v < square; v++ {
		for u := 0; u < square; u++ {
			var on bool
			switch set {
			case "merida":
				on = shape(role, float64(u), float64(v)) && !shapeScaled(role, u, v, 0.55)
			case "alpha":
				on = shapeScaled(role, u, v, 0.75)
			default:
				on = shape(role, float64(u), float64(v))
			}
			mask[v*square+u] = on
		}
	}
	return mask
}

func shapeScaled(role, u, v int, s float64) bool {
	return shape(role, 45+(float64(u)-45)/s, 45+(float64(v)-45)/s)
}

func shape(role int, u, v float64) bool {
	du, dv := u-45, v-45
	switch role {
	case 1: // pawn
		return du*du+(v-52)*(v-52) <= 22*22 || du*du+(v-30)*(v-30) <= 12*12
	case 2: // knight
		sign := func(ax, ay, bx, by float64) float64 {
			return (u-bx)*(ay-by) - (ax-bx)*(v-by)
		}
		d1 := sign(25, 70, 65, 70)
		d2 := sign(65, 70, 55, 20)
		d3 := sign(55, 20, 25, 70)
		neg := d1 < 0 || d2 < 0 || d3 < 0
		pos := d1 > 0 || d2 > 0 || d3 > 0
		return !(neg && pos)
	case 3: // bishop
		return abs(du)+abs(dv) <= 30
	case 4: // rook
		return 27 <= u && u < 63 && 22 <= v && v < 70
	case 5: // queen
		return abs(du)+abs(dv) <= 34 || du*du+dv*dv <= 24*24
	case 6: // king
		return (abs(du) <= 9 && 15 <= v && v < 75) || (abs(dv) <= 9 && 15 <= u && u < 75)
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
