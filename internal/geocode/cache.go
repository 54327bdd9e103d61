package geocode

import (
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/bdmet/climate-cli/internal/model"
)

// Cache is the persistent district→coordinate mapping. Lookups never touch
// the network; mutation happens only through Insert during a build pass.
// Iteration order is stable (insertion order, load order for persisted
// entries).
type Cache struct {
	path   string
	points map[string]model.GeoPoint
	order  []string
}

// NewCache returns an empty cache that persists to path.
func NewCache(path string) *Cache {
	return &Cache{
		path:   path,
		points: make(map[string]model.GeoPoint),
	}
}

// Load reads the cache CSV at path. A missing file yields an empty cache;
// a malformed file or an out-of-range coordinate is an error.
func Load(path string) (*Cache, error) {
	c := NewCache(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: read cache %s", path)
	}

	var points []model.GeoPoint
	if err := csvutil.Unmarshal(data, &points); err != nil {
		return nil, eris.Wrapf(err, "geocode: parse cache %s", path)
	}

	for _, p := range points {
		if err := p.Validate(); err != nil {
			return nil, eris.Wrap(err, "geocode: load cache")
		}
		c.set(p)
	}
	return c, nil
}

// Lookup returns the GeoPoint for a district name, tolerating case and
// whitespace differences. It performs no I/O.
func (c *Cache) Lookup(district string) (model.GeoPoint, bool) {
	p, ok := c.points[Key(district)]
	return p, ok
}

// Insert validates the point, stores it, and rewrites the cache file so the
// entry survives a crash.
func (c *Cache) Insert(p model.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return eris.Wrap(err, "geocode: insert")
	}
	c.set(p)
	return c.persist()
}

func (c *Cache) set(p model.GeoPoint) {
	key := Key(p.District)
	if _, exists := c.points[key]; !exists {
		c.order = append(c.order, key)
	}
	c.points[key] = p
}

// Points returns all entries in stable order.
func (c *Cache) Points() []model.GeoPoint {
	out := make([]model.GeoPoint, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.points[key])
	}
	return out
}

// Len returns the number of cached districts.
func (c *Cache) Len() int {
	return len(c.points)
}

// Path returns the backing file path.
func (c *Cache) Path() string {
	return c.path
}

// persist rewrites the full cache file. Writes go through a temp file and
// rename so readers never observe a partial table.
func (c *Cache) persist() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return eris.Wrapf(err, "geocode: create cache dir for %s", c.path)
	}

	data, err := csvutil.Marshal(c.Points())
	if err != nil {
		return eris.Wrap(err, "geocode: marshal cache")
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "geocode: write cache %s", tmp)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return eris.Wrapf(err, "geocode: rename cache %s", c.path)
	}
	return nil
}
