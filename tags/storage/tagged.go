package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

// TaggedQuery selects taggables of one kind by the tags they carry.
// Queries are values; each builder method returns a modified copy.
type TaggedQuery struct {
	names    []string
	kind     string
	contexts []string
	tagger   tags.Tagger
	anyTag   bool
	allTags  bool
}

// TaggedWith starts a query for taggables carrying names. Names are
// case-folded and deduplicated. With more than one name every name must be
// present unless AnyTag is set.
func TaggedWith(names ...string) TaggedQuery {
	seen := make(map[string]bool, len(names))
	folded := make([]string, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		name = strings.ToLower(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		folded = append(folded, name)
	}
	return TaggedQuery{names: folded}
}

// OfKind sets the taggable kind. Required.
func (q TaggedQuery) OfKind(kind string) TaggedQuery {
	q.kind = kind
	return q
}

// WithContext restricts matching taggings to any of contexts.
func (q TaggedQuery) WithContext(contexts ...string) TaggedQuery {
	q.contexts = append([]string(nil), contexts...)
	return q
}

// WithTagger restricts matching taggings to one tagger. Unset matches any.
func (q TaggedQuery) WithTagger(tagger tags.Tagger) TaggedQuery {
	q.tagger = tagger
	return q
}

// RequireAllTags forces a taggable to carry every name, even for a single name.
func (q TaggedQuery) RequireAllTags() TaggedQuery {
	q.allTags, q.anyTag = true, false
	return q
}

// AnyTag matches taggables carrying at least one of the names.
func (q TaggedQuery) AnyTag() TaggedQuery {
	q.anyTag, q.allTags = true, false
	return q
}

// Names returns the folded, deduplicated tag names.
func (q TaggedQuery) Names() []string {
	return append([]string(nil), q.names...)
}

func (q TaggedQuery) grouped() bool {
	if q.anyTag {
		return false
	}
	return q.allTags || len(q.names) > 1
}

type predicateMode int

const (
	matchNone predicateMode = iota
	matchAll
	matchSubquery
)

// Predicate is a resolved tagged-with condition that composes into a host
// query over taggable ids.
type Predicate struct {
	kind     string
	mode     predicateMode
	subquery string
	args     []interface{}
}

// Kind returns the base kind the predicate selects.
func (p Predicate) Kind() string { return p.kind }

// MatchesNone reports whether the predicate can never match.
func (p Predicate) MatchesNone() bool { return p.mode == matchNone }

// MatchesAll reports whether the predicate places no restriction.
func (p Predicate) MatchesAll() bool { return p.mode == matchAll }

// SQL renders the predicate as a WHERE fragment over column, the host
// table's taggable id column. The fragment is fully parameterised.
func (p Predicate) SQL(column string) (string, []interface{}, error) {
	if err := validateColumn(column); err != nil {
		return "", nil, err
	}
	switch p.mode {
	case matchNone:
		return "1 = 0", nil, nil
	case matchAll:
		return "1 = 1", nil, nil
	default:
		args := append([]interface{}(nil), p.args...)
		return fmt.Sprintf("%s IN (%s)", column, p.subquery), args, nil
	}
}

// ResolveTagged resolves q's tag names against the dictionary and returns
// a predicate. A name missing from the dictionary, or an empty name list,
// yields a predicate that matches nothing.
func (s *SQLStore) ResolveTagged(ctx context.Context, q TaggedQuery) (Predicate, error) {
	if q.kind == "" {
		return Predicate{}, errors.NewInvalidRequestError("tagged query needs a taggable kind")
	}
	kind, err := s.registry.BaseKind(q.kind)
	if err != nil {
		return Predicate{}, err
	}
	tagger, err := s.resolveTagger(q.tagger)
	if err != nil {
		return Predicate{}, err
	}

	if len(q.names) == 0 {
		if s.emptyFilterMatchesAll {
			return Predicate{kind: kind, mode: matchAll}, nil
		}
		return Predicate{kind: kind, mode: matchNone}, nil
	}

	ids, err := resolveTagIDs(ctx, s.db, q.names)
	if err != nil {
		return Predicate{}, err
	}
	if len(ids) != len(q.names) && !q.anyTag {
		s.logger.Debugw("Tagged query names missing from dictionary",
			"requested", len(q.names), "resolved", len(ids))
		return Predicate{kind: kind, mode: matchNone}, nil
	}
	if len(ids) == 0 {
		return Predicate{kind: kind, mode: matchNone}, nil
	}

	var qb queryBuilder
	qb.addClause("tg.taggable_type = ?", kind)
	qb.addInClause("tg.tag_id", toArgs(ids))
	qb.buildContextFilter("tg", q.contexts)
	qb.buildTaggerFilter("tg", tagger)

	subquery := "SELECT tg.taggable_id FROM taggings tg WHERE " + qb.build() + " GROUP BY tg.taggable_id"
	args := qb.args
	if q.grouped() {
		subquery += " HAVING COUNT(DISTINCT tg.tag_id) = ?"
		args = append(args, len(ids))
	}

	return Predicate{kind: kind, mode: matchSubquery, subquery: subquery, args: args}, nil
}

// FindTagged returns the ids of taggables matching q, ascending. With the
// match-all switch and no names it returns every taggable of the kind that
// has at least one tagging.
func (s *SQLStore) FindTagged(ctx context.Context, q TaggedQuery) ([]int64, error) {
	pred, err := s.ResolveTagged(ctx, q)
	if err != nil {
		return nil, err
	}

	var (
		query string
		args  []interface{}
	)
	switch pred.mode {
	case matchNone:
		return []int64{}, nil
	case matchAll:
		query = "SELECT DISTINCT taggable_id FROM taggings WHERE taggable_type = ? ORDER BY taggable_id"
		args = []interface{}{pred.kind}
	default:
		query = pred.subquery + " ORDER BY tg.taggable_id"
		args = pred.args
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tagged taggables")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan taggable id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "failed to iterate tagged taggables")
}
