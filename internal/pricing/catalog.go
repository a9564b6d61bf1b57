package pricing

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fekuna/repairshop-service/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var ErrUnknownCategory = errors.New("unknown service category")

// Catalog is the fixed price table. It is built once at startup and never mutated.
type Catalog struct {
	categories []model.ServiceCategory
	byName     map[string]int
}

type catalogFile struct {
	Categories []model.ServiceCategory `yaml:"categories"`
}

func ParseCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(f.Categories))}
	for _, cat := range f.Categories {
		if cat.Name == "" {
			return nil, errors.New("parse catalog: category without a name")
		}
		if _, dup := c.byName[cat.Name]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate category %q", cat.Name)
		}
		for _, e := range cat.Entries {
			if digitRun.FindString(e.Model) == "" {
				return nil, fmt.Errorf("parse catalog: %q entry %q has no generation number", cat.Name, e.Model)
			}
		}
		c.byName[cat.Name] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// LoadCatalog reads path, or the embedded table when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCatalog(f)
}

func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(bytes.NewReader(embeddedCatalog))
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Categories() []model.ServiceCategory {
	out := make([]model.ServiceCategory, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Category(name string) (model.ServiceCategory, error) {
	i, ok := c.byName[name]
	if !ok {
		return model.ServiceCategory{}, fmt.Errorf("%q: %w", name, ErrUnknownCategory)
	}
	return c.categories[i], nil
}
