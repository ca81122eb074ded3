package am

import (
	"github.com/spf13/viper"

	"github.com/teranos/tagteam/tags"
)

// Default values
const (
	DefaultDatabasePath = "tagteam.db"
	EnvPrefix           = "TAGTEAM"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("tagging.delimiter", tags.DefaultDelimiter)
	v.SetDefault("tagging.empty_filter_matches_all", false) // Match none, see DESIGN.md
	v.SetDefault("tagging.strict_kinds", false)
}
