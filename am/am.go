// Package am loads tagteam configuration from TOML files and TAGTEAM_
// environment variables.
package am

// Config represents the tagteam configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Tagging  TaggingConfig  `mapstructure:"tagging" toml:"tagging" json:"tagging" yaml:"tagging"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// TaggingConfig configures tag parsing, queries and the kind registry
type TaggingConfig struct {
	Delimiter             string                `mapstructure:"delimiter" toml:"delimiter" json:"delimiter" yaml:"delimiter"`                                                                 // Separator for tag strings (default: ",")
	EmptyFilterMatchesAll bool                  `mapstructure:"empty_filter_matches_all" toml:"empty_filter_matches_all" json:"empty_filter_matches_all" yaml:"empty_filter_matches_all"` // Legacy: a tagged-with query with no names matches everything
	StrictKinds           bool                  `mapstructure:"strict_kinds" toml:"strict_kinds" json:"strict_kinds" yaml:"strict_kinds"`                                                 // Reject refs of kinds not listed under tagging.kinds
	Kinds                 map[string]KindConfig `mapstructure:"kinds" toml:"kinds,omitempty" json:"kinds,omitempty" yaml:"kinds,omitempty"`
}

// KindConfig declares one taggable kind. Viper lowercases keys, so kind and
// group names are lowercase.
type KindConfig struct {
	Base   string              `mapstructure:"base" toml:"base" json:"base" yaml:"base"`                                         // Parent kind persisted in place of this one; "" for root kinds
	Groups map[string][]string `mapstructure:"groups" toml:"groups,omitempty" json:"groups,omitempty" yaml:"groups,omitempty"` // Group name -> contexts
}

// DefaultFilePermissions is used for config files written by tagteam tooling
const DefaultFilePermissions = 0644
