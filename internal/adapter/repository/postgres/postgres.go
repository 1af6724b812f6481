// Package postgres implements the short URL and user repositories on top of
// Postgres. Uniqueness of identifiers, slugs, usernames and emails is enforced
// by the database and reported through the sentinel errors of package entity.
package postgres

import (
	"fmt"
	"strings"

	"github.com/vadimbarashkov/shortener/internal/entity"
)

// orderBy builds an ORDER BY clause from a whitelist of sortable columns.
// Ties are broken by the tiebreak column so that pages are stable.
func orderBy(columns map[string]string, s entity.Sorting, tiebreak string) (string, error) {
	col, ok := columns[s.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidSortField, s.Field)
	}

	dir := "ASC"
	if s.Order == entity.SortDesc {
		dir = "DESC"
	}

	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, %s %s", col, dir, tiebreak, dir), nil
}

// selectColumns renders a column list for SELECT and RETURNING clauses.
func selectColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
