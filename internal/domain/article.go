package domain

import "strings"

// Article is a single news item as returned by the news provider.
// Articles have no identity beyond their position in a fetched batch.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Category is a news-topic filter from the provider's fixed set.
type Category string

const (
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryGeneral       Category = "general"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
)

var validCategories = map[Category]bool{
	CategoryBusiness:      true,
	CategoryEntertainment: true,
	CategoryGeneral:       true,
	CategoryHealth:        true,
	CategoryScience:       true,
	CategorySports:        true,
	CategoryTechnology:    true,
}

// ParseCategory returns the normalized category, or empty string when the
// input is not one of the provider's seven categories.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if validCategories[c] {
		return c
	}
	return ""
}
