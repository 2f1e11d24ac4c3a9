package db

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func paginate(page, size int) func(*gorm.DB) *gorm.DB {
	page, size = normalizePage(page, size)
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Offset((page - 1) * size).Limit(size)
	}
}

// filterValue treats "" and "all" as no filter.
func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern turns user text into a literal substring pattern; % and _ in
// the input match only themselves.
func likePattern(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// likeAny builds "LOWER(a) LIKE ? ESCAPE '\' OR ..." with one placeholder per column.
func likeAny(cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
	}
	return strings.Join(parts, " OR ")
}

func repeatArg(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// canonicalID parses any spelling Postgres accepts for a uuid and returns
// the lower-case hyphenated form.
func canonicalID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
