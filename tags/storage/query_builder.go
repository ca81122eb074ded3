package storage

import (
	"regexp"
	"strings"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
)

// queryBuilder accumulates SQL WHERE clauses and parameters for tagging queries.
// Only identifiers chosen by this package are written into clause text;
// every caller-supplied value travels as a bound argument.
type queryBuilder struct {
	whereClauses []string
	args         []interface{}
}

// addClause appends a WHERE clause with its arguments
func (qb *queryBuilder) addClause(clause string, args ...interface{}) {
	qb.whereClauses = append(qb.whereClauses, clause)
	qb.args = append(qb.args, args...)
}

// build returns the WHERE clauses joined with AND
func (qb *queryBuilder) build() string {
	if len(qb.whereClauses) == 0 {
		return "1 = 1"
	}
	return strings.Join(qb.whereClauses, " AND ")
}

// addInClause appends "column IN (?, ...)"; a single value uses equality.
func (qb *queryBuilder) addInClause(column string, values []interface{}) {
	if len(values) == 1 {
		qb.addClause(column+" = ?", values[0])
		return
	}
	qb.addClause(column+" IN ("+placeholders(len(values))+")", values...)
}

// addNullableEq compares column to value, or checks IS NULL when value is empty.
func (qb *queryBuilder) addNullableEq(column string, value string) {
	if value == "" {
		qb.addClause(column + " IS NULL")
		return
	}
	qb.addClause(column+" = ?", value)
}

// buildScopeFilter restricts to one (taggable, context, tagger) scope.
func (qb *queryBuilder) buildScopeFilter(alias string, scope tags.Scope) {
	qb.buildTaggableFilter(alias, scope.Taggable)
	qb.addNullableEq(col(alias, "context"), scope.Context)
	qb.buildTaggerFilter(alias, scope.Tagger)
}

func (qb *queryBuilder) buildTaggableFilter(alias string, taggable tags.Ref) {
	qb.addClause(col(alias, "taggable_type")+" = ?", taggable.Kind)
	qb.addClause(col(alias, "taggable_id")+" = ?", taggable.ID)
}

// buildContextFilter matches any of contexts; empty means no restriction.
func (qb *queryBuilder) buildContextFilter(alias string, contexts []string) {
	if len(contexts) == 0 {
		return
	}
	qb.addInClause(col(alias, "context"), toArgs(contexts))
}

// buildTaggerFilter: Unset adds nothing, SystemDefault requires NULL tagger
// columns, Actor requires an exact (type, id) match.
func (qb *queryBuilder) buildTaggerFilter(alias string, tagger tags.Tagger) {
	if actor, ok := tagger.Actor(); ok {
		qb.addClause(col(alias, "tagger_type")+" = ?", actor.Kind)
		qb.addClause(col(alias, "tagger_id")+" = ?", actor.ID)
		return
	}
	if tagger.IsSystemDefault() {
		qb.addClause(col(alias, "tagger_type") + " IS NULL")
		qb.addClause(col(alias, "tagger_id") + " IS NULL")
	}
}

func col(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs[T any](values []T) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// escapeLikePattern escapes special characters in LIKE patterns for SQL ESCAPE clause
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// validateColumn accepts "column" or "table.column" identifiers only.
func validateColumn(column string) error {
	if !identifierPattern.MatchString(column) {
		return errors.Wrapf(tags.ErrInvalidColumn, "%q", column)
	}
	return nil
}
