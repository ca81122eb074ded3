package am

import (
	"sort"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

// Registry builds the kind registry declared under tagging.kinds.
// Bases are registered before the kinds that reference them.
func (c *Config) Registry() (*tags.Registry, error) {
	registry := tags.NewRegistry(c.Tagging.StrictKinds)

	names := make([]string, 0, len(c.Tagging.Kinds))
	for name := range c.Tagging.Kinds {
		names = append(names, name)
	}
	sort.Strings(names)

	registered := make(map[string]bool, len(names))
	for len(registered) < len(names) {
		progress := false
		for _, name := range names {
			kind := c.Tagging.Kinds[name]
			if registered[name] || (kind.Base != "" && !registered[kind.Base]) {
				continue
			}
			err := registry.Register(tags.Kind{Name: name, Base: kind.Base, Groups: kind.Groups})
			if err != nil {
				return nil, errors.Wrapf(err, "tagging.kinds.%s", name)
			}
			registered[name] = true
			progress = true
		}
		if !progress {
			return nil, errors.New("tagging.kinds has unresolvable base kinds")
		}
	}
	return registry, nil
}

// Parser returns the tag parser for the configured delimiter.
func (c *Config) Parser() tags.Parser {
	return tags.NewParser(c.Tagging.Delimiter)
}
