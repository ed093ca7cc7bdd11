package agent

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/profiles.yaml
var defaultProfiles []byte

type Profile struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Keywords     []string `yaml:"keywords" json:"keywords"`
	SystemPrompt string   `yaml:"system_prompt" json:"-"`
}

type catalogFile struct {
	Default  string    `yaml:"default"`
	Profiles []Profile `yaml:"profiles"`
}

// Catalog is the immutable set of known agent profiles.
type Catalog struct {
	defaultID string
	profiles  []Profile
	byID      map[string]Profile
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("parse profiles: no profiles defined")
	}

	c := &Catalog{defaultID: f.Default, byID: make(map[string]Profile, len(f.Profiles))}
	for _, p := range f.Profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("parse profiles: profile without id")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("parse profiles: duplicate profile %q", p.ID)
		}
		c.byID[p.ID] = p
		c.profiles = append(c.profiles, p)
	}
	if c.defaultID == "" {
		c.defaultID = f.Profiles[0].ID
	}
	if _, ok := c.byID[c.defaultID]; !ok {
		return nil, fmt.Errorf("parse profiles: default profile %q not defined", c.defaultID)
	}
	return c, nil
}

// DefaultCatalog loads the profiles shipped with the binary.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultProfiles)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Default() Profile { return c.byID[c.defaultID] }

func (c *Catalog) Get(id string) (Profile, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) List() []Profile {
	out := make([]Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}
