package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

const taggingColumns = "id, tag_id, name, taggable_type, taggable_id, context, tagger_type, tagger_id, created_at"

// pruneScope deletes the taggings in scope whose submitted name is not in
// keep. Names compare case-sensitively so a case change is rewritten.
func pruneScope(ctx context.Context, q querier, scope tags.Scope, keep []string) (int64, error) {
	var qb queryBuilder
	qb.buildScopeFilter("", scope)
	if len(keep) > 0 {
		qb.addClause("name NOT IN ("+placeholders(len(keep))+")", toArgs(keep)...)
	}

	result, err := q.ExecContext(ctx, "DELETE FROM taggings WHERE "+qb.build(), qb.args...)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to prune taggings of %s", scope.Taggable)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read affected rows")
	}
	return deleted, nil
}

func scopeNames(ctx context.Context, q querier, scope tags.Scope) ([]string, error) {
	var qb queryBuilder
	qb.buildScopeFilter("", scope)

	rows, err := q.QueryContext(ctx, "SELECT name FROM taggings WHERE "+qb.build()+" ORDER BY id", qb.args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load taggings of %s", scope.Taggable)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan tagging name")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "failed to iterate taggings")
}

func createTagging(ctx context.Context, q querier, t *tags.Tagging) error {
	var (
		taggerType sql.NullString
		taggerID   sql.NullInt64
	)
	if actor, ok := t.Tagger.Actor(); ok {
		taggerType = sql.NullString{String: actor.Kind, Valid: true}
		taggerID = sql.NullInt64{Int64: actor.ID, Valid: true}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO taggings (tag_id, name, taggable_type, taggable_id, context, tagger_type, tagger_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TagID, t.Name, t.Taggable.Kind, t.Taggable.ID, nullString(t.Context), taggerType, taggerID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Mark(errors.Wrapf(err, "tagging %q already exists for %s", t.Name, t.Taggable), errors.ErrConflict)
		}
		return errors.Wrapf(err, "failed to insert tagging %q for %s", t.Name, t.Taggable)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read tagging id")
	}
	t.ID = id
	return nil
}

func queryTaggings(ctx context.Context, q querier, qb queryBuilder) ([]tags.Tagging, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+taggingColumns+" FROM taggings WHERE "+qb.build()+" ORDER BY id", qb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query taggings")
	}
	defer rows.Close()

	var result []tags.Tagging
	for rows.Next() {
		t, err := scanTagging(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, errors.Wrap(rows.Err(), "failed to iterate taggings")
}

func scanTagging(rows *sql.Rows) (tags.Tagging, error) {
	var (
		t          tags.Tagging
		context    sql.NullString
		taggerType sql.NullString
		taggerID   sql.NullInt64
		createdAt  time.Time
	)
	err := rows.Scan(&t.ID, &t.TagID, &t.Name, &t.Taggable.Kind, &t.Taggable.ID,
		&context, &taggerType, &taggerID, &createdAt)
	if err != nil {
		return t, errors.Wrap(err, "failed to scan tagging")
	}

	t.Context = context.String
	t.CreatedAt = createdAt
	if taggerType.Valid && taggerID.Valid {
		t.Tagger = tags.Actor(tags.Ref{Kind: taggerType.String, ID: taggerID.Int64})
	} else {
		t.Tagger = tags.SystemDefault()
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
