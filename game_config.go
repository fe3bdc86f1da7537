package mapdraft

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Game is an engine profile: which map formats it accepts, in detection
// priority order, and how its entities and materials behave.
type Game struct {
	Name           string
	Formats        []MapFormat
	PropertyConfig EntityPropertyConfig
	MaterialRoot   string
	MaterialExts   []string
}

// gameConfigFile is the on-disk TOML shape of a game profile:
//
//	name = "Quake"
//	formats = ["Valve", "Standard"]
//
//	[entities]
//	set-default-properties = true
//
//	[materials]
//	root = "textures"
//	extensions = [".png", ".bmp"]
type gameConfigFile struct {
	Name     string   `toml:"name"`
	Formats  []string `toml:"formats"`
	Entities struct {
		SetDefaultProperties bool `toml:"set-default-properties"`
	} `toml:"entities"`
	Materials struct {
		Root       string   `toml:"root"`
		Extensions []string `toml:"extensions"`
	} `toml:"materials"`
}

// LoadGameConfig parses a game profile from TOML.
func LoadGameConfig(r io.Reader) (*Game, error) {
	var file gameConfigFile
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing game config: %w", err)
	}
	if file.Name == "" {
		return nil, fmt.Errorf("game config has no name")
	}
	if len(file.Formats) == 0 {
		return nil, fmt.Errorf("game config %q declares no map formats", file.Name)
	}

	game := &Game{
		Name:         file.Name,
		MaterialRoot: file.Materials.Root,
		MaterialExts: file.Materials.Extensions,
		PropertyConfig: EntityPropertyConfig{
			SetDefaultProperties: file.Entities.SetDefaultProperties,
		},
	}
	for _, name := range file.Formats {
		format, err := ParseMapFormat(name)
		if err != nil {
			return nil, fmt.Errorf("game config %q: %w", file.Name, err)
		}
		game.Formats = append(game.Formats, format)
	}
	return game, nil
}

func LoadGameConfigFile(path string) (*Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadGameConfig(f)
}
