package specification

import (
	"strings"

	"gorm.io/gorm"
)

// NameOrEmailContains is a case-insensitive substring match on name or email.
// LOWER(...) LIKE keeps it portable between postgres and sqlite.
type NameOrEmailContains struct {
	Query string
}

func (s NameOrEmailContains) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(s.Query))) + "%"
	return db.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern)
}

func escapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}
