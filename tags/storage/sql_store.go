// Package storage provides the SQLite implementation of the tagging store:
// the tag dictionary, the taggings (association) table, transactions, and
// the tagged-with, related and count query builders.
package storage

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/teranos/tagteam/db"
	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/logger"
	"github.com/teranos/tagteam/tags"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore implements tags.Store on a SQLite database migrated by package db.
type SQLStore struct {
	db                    *sql.DB
	logger                *zap.SugaredLogger
	registry              *tags.Registry
	emptyFilterMatchesAll bool
}

var _ tags.Store = (*SQLStore)(nil)

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithRegistry resolves kinds in queries to their base kind. A nil
// registry keeps the default lenient one.
func WithRegistry(r *tags.Registry) Option {
	return func(s *SQLStore) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithEmptyFilterMatchesAll makes a tagged-with query with no tag names
// match every entity instead of none.
func WithEmptyFilterMatchesAll(enabled bool) Option {
	return func(s *SQLStore) { s.emptyFilterMatchesAll = enabled }
}

// NewSQLStore creates a new SQL-based tagging store
func NewSQLStore(db *sql.DB, log *zap.SugaredLogger, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:       db,
		logger:   logger.OrNop(log),
		registry: tags.NewRegistry(false),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithinTx runs fn in a transaction, committing when fn returns nil.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx tags.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			err = errors.Mark(err, db.ErrDatabaseClosed)
		}
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// txStore implements tags.Tx on an open transaction.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) PruneScope(ctx context.Context, scope tags.Scope, keep []string) (int64, error) {
	return pruneScope(ctx, t.tx, scope, keep)
}

func (t *txStore) ScopeNames(ctx context.Context, scope tags.Scope) ([]string, error) {
	return scopeNames(ctx, t.tx, scope)
}

func (t *txStore) FindOrCreateTag(ctx context.Context, name string) (*tags.Tag, error) {
	return findOrCreateTag(ctx, t.tx, name)
}

func (t *txStore) CreateTagging(ctx context.Context, tagging *tags.Tagging) error {
	return createTagging(ctx, t.tx, tagging)
}

// ScopeNames returns the submitted names in scope, oldest first.
func (s *SQLStore) ScopeNames(ctx context.Context, scope tags.Scope) ([]string, error) {
	return scopeNames(ctx, s.db, scope)
}

// TaggingsInContexts returns the taggings of taggable in any of contexts.
func (s *SQLStore) TaggingsInContexts(ctx context.Context, taggable tags.Ref, contexts []string) ([]tags.Tagging, error) {
	if len(contexts) == 0 {
		return nil, nil
	}
	taggable, err := s.resolve(taggable)
	if err != nil {
		return nil, err
	}

	var qb queryBuilder
	qb.buildTaggableFilter("", taggable)
	qb.buildContextFilter("", contexts)

	return queryTaggings(ctx, s.db, qb)
}

// Taggings returns every tagging of taggable, oldest first.
func (s *SQLStore) Taggings(ctx context.Context, taggable tags.Ref) ([]tags.Tagging, error) {
	taggable, err := s.resolve(taggable)
	if err != nil {
		return nil, err
	}

	var qb queryBuilder
	qb.buildTaggableFilter("", taggable)

	return queryTaggings(ctx, s.db, qb)
}

// RemoveTaggings deletes every tagging of taggable.
func (s *SQLStore) RemoveTaggings(ctx context.Context, taggable tags.Ref) (int64, error) {
	taggable, err := s.resolve(taggable)
	if err != nil {
		return 0, err
	}

	var qb queryBuilder
	qb.buildTaggableFilter("", taggable)

	result, err := s.db.ExecContext(ctx, "DELETE FROM taggings WHERE "+qb.build(), qb.args...)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete taggings of %s", taggable)
	}
	return result.RowsAffected()
}

// SharedContexts lists the contexts used by taggings without a tagger.
// An empty kind lists across all taggable kinds.
func (s *SQLStore) SharedContexts(ctx context.Context, kind string) ([]string, error) {
	return s.distinctContexts(ctx, kind, "tagger_id IS NULL")
}

// IndividualContexts lists the contexts used by taggings with a tagger.
// An empty kind lists across all taggable kinds.
func (s *SQLStore) IndividualContexts(ctx context.Context, kind string) ([]string, error) {
	return s.distinctContexts(ctx, kind, "tagger_id IS NOT NULL")
}

func (s *SQLStore) distinctContexts(ctx context.Context, kind string, taggerClause string) ([]string, error) {
	var qb queryBuilder
	qb.addClause(taggerClause)
	qb.addClause("context IS NOT NULL")
	if kind != "" {
		base, err := s.registry.BaseKind(kind)
		if err != nil {
			return nil, err
		}
		qb.addClause("taggable_type = ?", base)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT context FROM taggings WHERE "+qb.build()+" ORDER BY context", qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query contexts")
	}
	defer rows.Close()

	var contexts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, errors.Wrap(err, "failed to scan context")
		}
		contexts = append(contexts, c)
	}
	return contexts, errors.Wrap(rows.Err(), "failed to iterate contexts")
}

// resolve maps ref to its base kind via the registry.
func (s *SQLStore) resolve(ref tags.Ref) (tags.Ref, error) {
	return s.registry.Resolve(ref)
}

// resolveTagger maps an Actor tagger to its base kind.
func (s *SQLStore) resolveTagger(tagger tags.Tagger) (tags.Tagger, error) {
	actor, ok := tagger.Actor()
	if !ok {
		return tagger, nil
	}
	resolved, err := s.registry.Resolve(actor)
	if err != nil {
		return tags.Tagger{}, err
	}
	return tags.Actor(resolved), nil
}
