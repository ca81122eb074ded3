package storage

import (
	"context"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

// RelatedQuery ranks taggables of the same kind by how many tags they share
// with a reference taggable.
type RelatedQuery struct {
	ref      tags.Ref
	contexts []string
	limit    int
}

// RelatedEntity is one ranked result of a RelatedQuery.
type RelatedEntity struct {
	ID     int64
	Shared int
}

// RelatedTo starts a related query for ref.
func RelatedTo(ref tags.Ref) RelatedQuery {
	return RelatedQuery{ref: ref}
}

// WithContext restricts shared tags to taggings in any of contexts, on both sides.
func (q RelatedQuery) WithContext(contexts ...string) RelatedQuery {
	q.contexts = append([]string(nil), contexts...)
	return q
}

// Limit caps the number of results; 0 means no limit.
func (q RelatedQuery) Limit(n int) RelatedQuery {
	q.limit = n
	return q
}

// SQL renders the ranked query. The ref kind is used as given; callers
// holding a subkind should resolve it first or use SQLStore.FindRelated.
// Result columns are taggable_id and shared.
func (q RelatedQuery) SQL() (string, []interface{}) {
	var qb queryBuilder
	qb.addClause("mine.taggable_type = ?", q.ref.Kind)
	qb.addClause("mine.taggable_id = ?", q.ref.ID)
	qb.addClause("other.taggable_id <> ?", q.ref.ID)
	qb.buildContextFilter("mine", q.contexts)
	qb.buildContextFilter("other", q.contexts)

	query := `SELECT other.taggable_id, COUNT(DISTINCT other.tag_id) AS shared
		FROM taggings mine
		JOIN taggings other ON other.tag_id = mine.tag_id AND other.taggable_type = mine.taggable_type
		WHERE ` + qb.build() + `
		GROUP BY other.taggable_id
		ORDER BY shared DESC, other.taggable_id ASC`
	args := qb.args
	if q.limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.limit)
	}
	return query, args
}

// FindRelated returns taggables sharing at least one tag with the query's
// ref, most shared tags first. The ref itself is excluded.
func (s *SQLStore) FindRelated(ctx context.Context, q RelatedQuery) ([]RelatedEntity, error) {
	ref, err := s.resolve(q.ref)
	if err != nil {
		return nil, err
	}
	q.ref = ref

	query, args := q.SQL()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query taggables related to %s", ref)
	}
	defer rows.Close()

	related := []RelatedEntity{}
	for rows.Next() {
		var r RelatedEntity
		if err := rows.Scan(&r.ID, &r.Shared); err != nil {
			return nil, errors.Wrap(err, "failed to scan related taggable")
		}
		related = append(related, r)
	}
	return related, errors.Wrap(rows.Err(), "failed to iterate related taggables")
}
