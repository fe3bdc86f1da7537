package mapdraft

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
	"strings"

	"github.com/google/uuid"

	// Texture decoders for DecodeConfig. Collections hold png and bmp
	// images.
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

var (
	ErrUnknownCollection    = errors.New("unknown material collection")
	ErrCollectionAtBoundary = errors.New("material collection is already at the boundary")
)

// Material is a named texture resolved from a collection. Dimensions come
// from the image header.
type Material struct {
	Name       string
	Width      int
	Height     int
	Collection string
}

// MaterialCollection is a named directory of textures. Face material names
// are relative paths without extension, e.g. "e1m1/b_pv_v1a2".
type MaterialCollection struct {
	id        string
	name      string
	fsys      fs.FS
	root      string
	enabled   bool
	materials map[string]*Material
}

func (c *MaterialCollection) ID() string    { return c.id }
func (c *MaterialCollection) Name() string  { return c.name }
func (c *MaterialCollection) Enabled() bool { return c.enabled }

func (c *MaterialCollection) MaterialCount() int { return len(c.materials) }

func (c *MaterialCollection) reload() error {
	materials := make(map[string]*Material)
	err := fs.WalkDir(c.fsys, c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".png" && ext != ".bmp" {
			return nil
		}

		file, err := c.fsys.Open(p)
		if err != nil {
			return err
		}
		defer file.Close()

		cfg, _, err := image.DecodeConfig(file)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", p, err)
		}

		rel := strings.TrimPrefix(p, c.root)
		rel = strings.TrimPrefix(rel, "/")
		name := strings.TrimSuffix(rel, ext)
		materials[name] = &Material{
			Name:       name,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Collection: c.name,
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.materials = materials
	return nil
}

// MaterialManager keeps an ordered list of material collections and
// resolves face material names against the enabled ones, front to back.
type MaterialManager struct {
	logger      Logger
	collections []*MaterialCollection
}

func NewMaterialManager(logger Logger) *MaterialManager {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &MaterialManager{logger: logger}
}

// AddCollection registers and scans a collection rooted at root within
// fsys. The collection starts out enabled.
func (m *MaterialManager) AddCollection(name string, fsys fs.FS, root string) (*MaterialCollection, error) {
	collection := &MaterialCollection{
		id:      uuid.NewString(),
		name:    name,
		fsys:    fsys,
		root:    root,
		enabled: true,
	}
	if err := collection.reload(); err != nil {
		return nil, fmt.Errorf("scanning material collection %q: %w", name, err)
	}
	m.collections = append(m.collections, collection)
	m.logger.Debugf("added material collection %q with %d materials", name, collection.MaterialCount())
	return collection, nil
}

func (m *MaterialManager) Collections() []*MaterialCollection {
	out := make([]*MaterialCollection, len(m.collections))
	copy(out, m.collections)
	return out
}

func (m *MaterialManager) Collection(name string) (*MaterialCollection, error) {
	for _, c := range m.collections {
		if c.name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

func (m *MaterialManager) indexOf(name string) int {
	for i, c := range m.collections {
		if c.name == name {
			return i
		}
	}
	return -1
}

func (m *MaterialManager) SetCollectionEnabled(name string, enabled bool) error {
	collection, err := m.Collection(name)
	if err != nil {
		return err
	}
	collection.enabled = enabled
	return nil
}

// MoveCollectionUp moves the named collection one position toward the
// front of the resolution order.
func (m *MaterialManager) MoveCollectionUp(name string) error {
	idx := m.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	if idx == 0 {
		return fmt.Errorf("%w: %q", ErrCollectionAtBoundary, name)
	}
	m.collections[idx-1], m.collections[idx] = m.collections[idx], m.collections[idx-1]
	return nil
}

func (m *MaterialManager) MoveCollectionDown(name string) error {
	idx := m.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	if idx == len(m.collections)-1 {
		return fmt.Errorf("%w: %q", ErrCollectionAtBoundary, name)
	}
	m.collections[idx], m.collections[idx+1] = m.collections[idx+1], m.collections[idx]
	return nil
}

// Reload re-scans every collection from its filesystem.
func (m *MaterialManager) Reload() error {
	for _, c := range m.collections {
		if err := c.reload(); err != nil {
			return err
		}
		m.logger.Debugf("reloaded material collection %q (%d materials)", c.name, c.MaterialCount())
	}
	return nil
}

// Resolve finds the material for a face material name in the first enabled
// collection that has it, or nil.
func (m *MaterialManager) Resolve(name string) *Material {
	for _, c := range m.collections {
		if !c.enabled {
			continue
		}
		if material, ok := c.materials[name]; ok {
			return material
		}
	}
	return nil
}
