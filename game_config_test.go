package mapdraft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quakeGameConfig = `
name = "Quake"
formats = ["Valve", "Standard"]

[entities]
set-default-properties = true

[materials]
root = "textures"
extensions = [".png", ".bmp"]
`

func TestLoadGameConfig(t *testing.T) {
	game, err := LoadGameConfig(strings.NewReader(quakeGameConfig))
	require.NoError(t, err)

	assert.Equal(t, "Quake", game.Name)
	assert.Equal(t, []MapFormat{FormatValve, FormatStandard}, game.Formats)
	assert.True(t, game.PropertyConfig.SetDefaultProperties)
	assert.Equal(t, "textures", game.MaterialRoot)
	assert.Equal(t, []string{".png", ".bmp"}, game.MaterialExts)
}

func TestLoadGameConfigMinimal(t *testing.T) {
	game, err := LoadGameConfig(strings.NewReader("name = \"Quake 3\"\nformats = [\"Quake3\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []MapFormat{FormatQuake3}, game.Formats)
	assert.False(t, game.PropertyConfig.SetDefaultProperties)
}

func TestLoadGameConfigErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing name", "formats = [\"Standard\"]\n"},
		{"no formats", "name = \"Quake\"\n"},
		{"unknown format", "name = \"Quake\"\nformats = [\"Hexen\"]\n"},
		{"unknown field", "name = \"Quake\"\nformats = [\"Standard\"]\nbogus = 1\n"},
		{"not toml", "{ this is not toml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadGameConfig(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadGameConfigFileMissing(t *testing.T) {
	_, err := LoadGameConfigFile("does/not/exist.toml")
	assert.Error(t, err)
}

func TestParseMapFormat(t *testing.T) {
	for _, format := range []MapFormat{FormatStandard, FormatValve, FormatQuake2, FormatQuake3} {
		parsed, err := ParseMapFormat(format.String())
		require.NoError(t, err)
		assert.Equal(t, format, parsed)
	}
	_, err := ParseMapFormat("Doom")
	assert.Error(t, err)
}
