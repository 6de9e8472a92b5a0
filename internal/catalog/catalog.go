// Package catalog holds the fixed list of rooms offered by the price editor.
// The list is read once at startup, either from a YAML file or from the copy
// embedded in the binary, and never changes afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/aizah-price-admin/internal/model"
)

//go:embed rooms.yaml
var defaultRooms []byte

var (
	// ErrEmptyCatalog is returned when a catalog file lists no rooms.
	ErrEmptyCatalog = errors.New("catalog has no rooms")
	// ErrEmptyRoomID is returned for an entry without an id.  The empty id
	// is reserved for the "no selection" placeholder.
	ErrEmptyRoomID = errors.New("room id is empty")
	// ErrDuplicateRoomID is returned when two entries share an id.
	ErrDuplicateRoomID = errors.New("duplicate room id")
)

type catalogFile struct {
	Rooms []model.Room `yaml:"rooms"`
}

// Catalog is an ordered, immutable set of rooms indexed by id.
type Catalog struct {
	rooms []model.Room
	byID  map[string]model.Room
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Rooms)
}

// New builds a catalog from rooms, keeping their order.
func New(rooms []model.Room) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		rooms: make([]model.Room, 0, len(rooms)),
		byID:  make(map[string]model.Room, len(rooms)),
	}
	for i, r := range rooms {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return nil, fmt.Errorf("room #%d: %w", i+1, ErrEmptyRoomID)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("room %q: %w", r.ID, ErrDuplicateRoomID)
		}
		c.byID[r.ID] = r
		c.rooms = append(c.rooms, r)
	}
	return c, nil
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultRooms)
	if err != nil {
		panic("embedded room catalog: " + err.Error())
	}
	return c
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Rooms returns the rooms in catalog order.
func (c *Catalog) Rooms() []model.Room {
	out := make([]model.Room, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Lookup finds a room by id.
func (c *Catalog) Lookup(id string) (model.Room, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// NameOf returns the display name for id, or "" when id is unknown.
func (c *Catalog) NameOf(id string) string {
	r, _ := c.Lookup(id)
	return r.Name
}

// DuplicateNames lists display names used by more than one room.  Updates
// still address rooms by name on the backend, so these are worth a warning.
func (c *Catalog) DuplicateNames() []string {
	seen := make(map[string]int, len(c.rooms))
	var dups []string
	for _, r := range c.rooms {
		seen[r.Name]++
		if seen[r.Name] == 2 {
			dups = append(dups, r.Name)
		}
	}
	return dups
}
