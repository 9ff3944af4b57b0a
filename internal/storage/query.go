package storage

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds an ILIKE pattern matching s anywhere in the column.
func contains(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}

func paginate(q *gorm.DB, p Page) *gorm.DB {
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}

// orderBy resolves a client sort key against allowed, falling back to
// fallback, and renders "column direction".
func orderBy(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[fallback]
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}
