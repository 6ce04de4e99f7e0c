package category

import (
	"regexp"
	"strings"
	"time"
)

// Category groups catalog products. Slug is unique and used in product
// filters.
type Category struct {
	ID          int       `json:"categoryId"`
	Name        string    `json:"categoryName"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
