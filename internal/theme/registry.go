package theme

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// BoardSkin is the board coloring. The set is closed; assets for every
// value are compiled in.
type BoardSkin uint8

const (
	BoardBrown BoardSkin = iota
	BoardBlue
	BoardGreen
	BoardPurple

	numBoardSkins = iota
)

var boardSkinNames = [numBoardSkins]string{"brown", "blue", "green", "purple"}

func (s BoardSkin) String() string { return boardSkinNames[s] }

// ParseBoardSkin maps a request string to a skin. The empty string selects
// the default.
func ParseBoardSkin(s string) (BoardSkin, error) {
	if s == "" {
		return BoardBrown, nil
	}
	for i, name := range boardSkinNames {
		if s == name {
			return BoardSkin(i), nil
		}
	}
	return 0, fmt.Errorf("unknown board theme %q", s)
}

// PieceSet is the piece drawing style.
type PieceSet uint8

const (
	PieceCburnett PieceSet = iota
	PieceMerida
	PieceAlpha

	numPieceSets = iota
)

var pieceSetNames = [numPieceSets]string{"cburnett", "merida", "alpha"}

func (s PieceSet) String() string { return pieceSetNames[s] }

// ParsePieceSet maps a request string to a piece set. The empty string
// selects the default.
func ParsePieceSet(s string) (PieceSet, error) {
	if s == "" {
		return PieceCburnett, nil
	}
	for i, name := range pieceSetNames {
		if s == name {
			return PieceSet(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece set %q", s)
}

type manifest struct {
	Sprites []struct {
		Board  string `yaml:"board"`
		Pieces string `yaml:"pieces"`
		File   string `yaml:"file"`
	} `yaml:"sprites"`
}

// Themes holds one Theme per skin and set combination. Built eagerly; Get
// never fails.
type Themes struct {
	byCombo [numBoardSkins][numPieceSets]*Theme
}

// NewThemes decodes every embedded sprite sheet listed in the manifest. An
// error here means the build assets are broken and the process must not
// start.
func NewThemes() (*Themes, error) {
	raw, err := assetFiles.ReadFile("assets/manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("read theme manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse theme manifest: %w", err)
	}

	t := &Themes{}
	for _, entry := range m.Sprites {
		skin, err := ParseBoardSkin(entry.Board)
		if err != nil {
			return nil, fmt.Errorf("theme manifest: %w", err)
		}
		set, err := ParsePieceSet(entry.Pieces)
		if err != nil {
			return nil, fmt.Errorf("theme manifest: %w", err)
		}
		data, err := assetFiles.ReadFile("assets/" + entry.File)
		if err != nil {
			return nil, fmt.Errorf("read sprite %s: %w", entry.File, err)
		}
		th, err := newTheme(data)
		if err != nil {
			return nil, fmt.Errorf("sprite %s: %w", entry.File, err)
		}
		t.byCombo[skin][set] = th
	}

	for skin := 0; skin < numBoardSkins; skin++ {
		for set := 0; set < numPieceSets; set++ {
			if t.byCombo[skin][set] == nil {
				return nil, fmt.Errorf("no sprite sheet for %s/%s",
					BoardSkin(skin), PieceSet(set))
			}
		}
	}
	return t, nil
}

// Get returns the atlas for the combination. Total over the closed enums.
func (t *Themes) Get(skin BoardSkin, set PieceSet) *Theme {
	return t.byCombo[skin][set]
}
