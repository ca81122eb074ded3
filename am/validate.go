package am

import (
	"strings"

	"github.com/teranos/tagteam/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Database path is optional - empty falls back to DefaultDatabasePath at open time

	if strings.TrimSpace(c.Tagging.Delimiter) == "" {
		return errors.Newf("tagging.delimiter cannot be empty or whitespace, got %q", c.Tagging.Delimiter)
	}

	for name, kind := range c.Tagging.Kinds {
		if kind.Base != "" {
			if kind.Base == name {
				return errors.Newf("tagging.kinds.%s.base cannot name itself", name)
			}
			if _, ok := c.Tagging.Kinds[kind.Base]; !ok {
				return errors.Newf("tagging.kinds.%s.base %q is not a declared kind", name, kind.Base)
			}
		}
		for group, contexts := range kind.Groups {
			if len(contexts) == 0 {
				return errors.Newf("tagging.kinds.%s.groups.%s must list at least one context", name, group)
			}
		}
	}

	if cycle := c.findBaseCycle(); cycle != "" {
		return errors.Newf("tagging.kinds has a base cycle through %q", cycle)
	}

	return nil
}

// findBaseCycle returns a kind on a Base cycle, or "" when there is none
func (c *Config) findBaseCycle() string {
	for start := range c.Tagging.Kinds {
		seen := map[string]bool{start: true}
		for name := c.Tagging.Kinds[start].Base; name != ""; name = c.Tagging.Kinds[name].Base {
			if seen[name] {
				return start
			}
			seen[name] = true
		}
	}
	return ""
}
