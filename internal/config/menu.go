package config

import "sort"

// MenuEntry represents one site navigation entry.
type MenuEntry struct {
	Identifier string `yaml:"identifier,omitempty"`
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Weight     int    `yaml:"weight,omitempty"`
}

// SortedMenu returns the menu entries in ascending weight order. Entries with
// equal weight keep a stable order by identifier then name so repeated builds
// render identically.
func (c *Config) SortedMenu() []MenuEntry {
	out := make([]MenuEntry, len(c.Menu))
	copy(out, c.Menu)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		if out[i].Identifier != out[j].Identifier {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].Name < out[j].Name
	})
	return out
}
