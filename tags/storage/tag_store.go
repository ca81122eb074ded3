package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

// FindTagByName looks up a dictionary entry case-insensitively.
func (s *SQLStore) FindTagByName(ctx context.Context, name string) (*tags.Tag, error) {
	tag, err := findTag(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, errors.NewNotFoundError("tag %q", name)
	}
	return tag, nil
}

// FindOrCreateTag returns the dictionary entry for name, creating it when missing.
func (s *SQLStore) FindOrCreateTag(ctx context.Context, name string) (*tags.Tag, error) {
	return findOrCreateTag(ctx, s.db, name)
}

// CreateTag inserts a new dictionary entry. Blank names return
// tags.ErrBlankTagName and names that already exist in any case return
// tags.ErrDuplicateTagName.
func (s *SQLStore) CreateTag(ctx context.Context, name string) (*tags.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.WithHint(tags.ErrBlankTagName, "tag names need at least one non-space character")
	}
	tag, err := insertTag(ctx, s.db, strings.ToLower(name))
	if isUniqueViolation(err) {
		return nil, errors.Wrapf(tags.ErrDuplicateTagName, "%q", name)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("Created tag", "tag", tag.Name, "id", tag.ID)
	return tag, nil
}

// ListTags returns dictionary entries ordered by name. A non-empty prefix
// filters names case-insensitively; limit 0 means no limit.
func (s *SQLStore) ListTags(ctx context.Context, prefix string, limit int) ([]tags.Tag, error) {
	var qb queryBuilder
	if prefix != "" {
		qb.addClause("name LIKE ? ESCAPE '\\'", escapeLikePattern(strings.ToLower(prefix))+"%")
	}

	query := "SELECT id, name FROM tags WHERE " + qb.build() + " ORDER BY name"
	args := qb.args
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tags")
	}
	defer rows.Close()

	var result []tags.Tag
	for rows.Next() {
		var tag tags.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag")
		}
		result = append(result, tag)
	}
	return result, errors.Wrap(rows.Err(), "failed to iterate tags")
}

// DeleteTag removes a dictionary entry and, through the foreign key, every
// tagging that references it.
func (s *SQLStore) DeleteTag(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE name = ?", name)
	if err != nil {
		return errors.Wrapf(err, "failed to delete tag %q", name)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.NewNotFoundError("tag %q", name)
	}
	s.logger.Infow("Deleted tag", "tag", name)
	return nil
}

// findTag returns nil without error when no tag matches.
func findTag(ctx context.Context, q querier, name string) (*tags.Tag, error) {
	var tag tags.Tag
	err := q.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE name = ?", name).Scan(&tag.ID, &tag.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up tag %q", name)
	}
	return &tag, nil
}

func findOrCreateTag(ctx context.Context, q querier, name string) (*tags.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, tags.ErrBlankTagName
	}
	name = strings.ToLower(name)

	tag, err := findTag(ctx, q, name)
	if err != nil || tag != nil {
		return tag, err
	}

	tag, err = insertTag(ctx, q, name)
	if isUniqueViolation(err) {
		// Another writer created it between our lookup and insert.
		tag, err = findTag(ctx, q, name)
		if err == nil && tag == nil {
			err = errors.Newf("tag %q vanished after unique conflict", name)
		}
	}
	return tag, err
}

func insertTag(ctx context.Context, q querier, name string) (*tags.Tag, error) {
	result, err := q.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to insert tag %q", name)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tag id")
	}
	return &tags.Tag{ID: id, Name: name}, nil
}

// resolveTagIDs maps folded names to tag ids. Names missing from the
// dictionary are absent from the result.
func resolveTagIDs(ctx context.Context, q querier, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var qb queryBuilder
	qb.addInClause("name", toArgs(names))

	rows, err := q.QueryContext(ctx, "SELECT id FROM tags WHERE "+qb.build()+" ORDER BY id", qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve tag names")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "failed to iterate tag ids")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
