package storage

import (
	"context"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

// CountQuery aggregates tag usage. With no restrictions it counts every
// tagging in the store.
type CountQuery struct {
	filter tags.CountFilter
	within *Predicate
}

// CountTags starts a tag count query.
func CountTags() CountQuery {
	return CountQuery{}
}

// ForTaggables restricts counting to taggables of kind. With no ids every
// taggable of the kind is counted.
func (q CountQuery) ForTaggables(kind string, ids ...int64) CountQuery {
	q.filter.Kind = kind
	if len(ids) > 0 {
		q.filter.IDs = append([]int64(nil), ids...)
	} else {
		q.filter.IDs = nil
	}
	return q
}

// ForNoTaggables makes the query match no taggables of kind, as when a host
// collection is empty.
func (q CountQuery) ForNoTaggables(kind string) CountQuery {
	q.filter.Kind = kind
	q.filter.IDs = []int64{}
	return q
}

// WithinTagged restricts counting to taggables matched by pred.
func (q CountQuery) WithinTagged(pred Predicate) CountQuery {
	q.within = &pred
	if q.filter.Kind == "" {
		q.filter.Kind = pred.kind
	}
	return q
}

// WithContext restricts counting to taggings in any of contexts.
func (q CountQuery) WithContext(contexts ...string) CountQuery {
	q.filter.Contexts = append([]string(nil), contexts...)
	return q
}

// WithTagger restricts counting to one tagger. Unset counts every tagger.
func (q CountQuery) WithTagger(tagger tags.Tagger) CountQuery {
	q.filter.Tagger = tagger
	return q
}

// Limit caps the number of counts returned; 0 means no limit.
func (q CountQuery) Limit(n int) CountQuery {
	q.filter.Limit = n
	return q
}

// TagCounts runs q and returns counts ordered by count descending, then name.
func (s *SQLStore) TagCounts(ctx context.Context, q CountQuery) ([]tags.TagCount, error) {
	filter := q.filter
	if filter.Kind != "" {
		kind, err := s.registry.BaseKind(filter.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = kind
	}
	tagger, err := s.resolveTagger(filter.Tagger)
	if err != nil {
		return nil, err
	}
	filter.Tagger = tagger

	return s.countTags(ctx, filter, q.within)
}

// CountTags implements tags.Store. Kinds and taggers in filter are used as given.
func (s *SQLStore) CountTags(ctx context.Context, filter tags.CountFilter) ([]tags.TagCount, error) {
	return s.countTags(ctx, filter, nil)
}

func (s *SQLStore) countTags(ctx context.Context, filter tags.CountFilter, within *Predicate) ([]tags.TagCount, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []tags.TagCount{}, nil
	}
	if within != nil && within.MatchesNone() {
		return []tags.TagCount{}, nil
	}

	var qb queryBuilder
	if filter.Kind != "" {
		qb.addClause("tg.taggable_type = ?", filter.Kind)
	}
	if len(filter.IDs) > 0 {
		qb.addInClause("tg.taggable_id", toArgs(filter.IDs))
	}
	qb.buildContextFilter("tg", filter.Contexts)
	qb.buildTaggerFilter("tg", filter.Tagger)
	if within != nil && !within.MatchesAll() {
		clause, args, err := within.SQL("tg.taggable_id")
		if err != nil {
			return nil, err
		}
		qb.addClause(clause, args...)
	}

	query := `SELECT t.name, COUNT(tg.id) AS uses
		FROM taggings tg
		JOIN tags t ON t.id = tg.tag_id
		WHERE ` + qb.build() + `
		GROUP BY t.id, t.name
		ORDER BY uses DESC, t.name ASC`
	args := qb.args
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count tags")
	}
	defer rows.Close()

	counts := []tags.TagCount{}
	for rows.Next() {
		var c tags.TagCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag count")
		}
		counts = append(counts, c)
	}
	return counts, errors.Wrap(rows.Err(), "failed to iterate tag counts")
}
