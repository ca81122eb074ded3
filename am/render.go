package am

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/tagteam/errors"
)

// Render encodes the configuration as TOML, in the format LoadFromFile reads.
func Render(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render config as TOML")
	}
	return data, nil
}
