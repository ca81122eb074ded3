package commands

import (
	"database/sql"

	"github.com/teranos/tagteam/am"
	"github.com/teranos/tagteam/db"
	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/logger"
	"github.com/teranos/tagteam/tags"
	"github.com/teranos/tagteam/tags/storage"
)

// DatabasePathFlag overrides database.path when set
var DatabasePathFlag string

// openDatabase opens and migrates a database using the specified path.
// If dbPath is empty, it loads from am config. Uses logger.Logger for db operations.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		path, err := am.GetDatabasePath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get database path")
		}
		if path == "" {
			dbPath = am.DefaultDatabasePath
		} else {
			dbPath = path
		}
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}

// session bundles what a tagging command needs
type session struct {
	db      *sql.DB
	store   *storage.SQLStore
	service *tags.Service
	config  *am.Config
	path    string
}

func (s *session) Close() error {
	return s.db.Close()
}

// openSession loads config, opens the database and wires the tagging service.
func openSession() (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	path := DatabasePathFlag
	if path == "" {
		path = cfg.Database.Path
	}
	database, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	log := logger.ComponentLogger("tags")
	store := storage.NewSQLStore(database, log,
		storage.WithRegistry(registry),
		storage.WithEmptyFilterMatchesAll(cfg.Tagging.EmptyFilterMatchesAll),
	)
	service := tags.NewService(store, registry,
		tags.WithParser(cfg.Parser()),
		tags.WithLogger(log),
	)

	return &session{db: database, store: store, service: service, config: cfg, path: path}, nil
}

// parseTagger maps a --tagger flag value to a Tagger:
// "" is unset, "default" is the system default, anything else is kind:id.
func parseTagger(value string) (tags.Tagger, error) {
	switch value {
	case "":
		return tags.Unset(), nil
	case "default":
		return tags.SystemDefault(), nil
	}
	ref, err := tags.ParseRef(value)
	if err != nil {
		return tags.Tagger{}, errors.WithHint(err, `use --tagger kind:id, or "default" for unattributed tags`)
	}
	return tags.Actor(ref), nil
}

// parseEntity builds a ref from <kind> <id> arguments
func parseEntity(kind, id string) (tags.Ref, error) {
	return tags.ParseRef(kind + ":" + id)
}
