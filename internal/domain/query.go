package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering applied by Apply.
type SortKey string

const (
	SortNone     SortKey = ""
	SortDistance SortKey = "distance"
	SortRating   SortKey = "rating"
	SortName     SortKey = "name"
	SortType     SortKey = "type"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// ParseSortKey validates a user-supplied sort key. "category" is accepted as
// an alias for "type".
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortDistance, SortRating, SortName, SortType:
		return k, nil
	case "category":
		return SortType, nil
	default:
		return SortNone, fmt.Errorf("%w: unknown sort key %q", ErrInvalidInput, s)
	}
}

// Query describes the text/category/sort stage of the discovery pipeline.
type Query struct {
	Text     string
	Category string
	Sort     SortKey

	// MissingDistanceLast sorts entities without a computed distance after
	// every entity that has one. By default they sort as distance 0.
	MissingDistanceLast bool
}

// Apply filters and sorts entities according to q and returns a new slice.
// The input slice is never mutated.
func Apply(entities []GeoEntity, q Query) []GeoEntity {
	out := make([]GeoEntity, 0, len(entities))
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	for _, e := range entities {
		if !matchesText(e, needle) || !matchesCategory(e, q.Category) {
			continue
		}
		out = append(out, e)
	}

	if less := comparator(q); less != nil {
		slices.SortStableFunc(out, less)
	}
	return out
}

func matchesText(e GeoEntity, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name), needle) ||
		strings.Contains(strings.ToLower(e.Description), needle) ||
		strings.Contains(strings.ToLower(e.Address), needle)
}

func matchesCategory(e GeoEntity, category string) bool {
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return true
	}
	return e.Category == category
}

func comparator(q Query) func(a, b GeoEntity) int {
	switch q.Sort {
	case SortName:
		col := collate.New(language.English)
		return func(a, b GeoEntity) int { return col.CompareString(a.Name, b.Name) }
	case SortType:
		col := collate.New(language.English)
		return func(a, b GeoEntity) int { return col.CompareString(a.Category, b.Category) }
	case SortRating:
		return func(a, b GeoEntity) int { return cmp.Compare(valueOrZero(b.Rating), valueOrZero(a.Rating)) }
	case SortDistance:
		if q.MissingDistanceLast {
			return compareDistanceMissingLast
		}
		return func(a, b GeoEntity) int { return cmp.Compare(valueOrZero(a.Distance), valueOrZero(b.Distance)) }
	default:
		return nil
	}
}

func compareDistanceMissingLast(a, b GeoEntity) int {
	switch {
	case a.Distance == nil && b.Distance == nil:
		return 0
	case a.Distance == nil:
		return 1
	case b.Distance == nil:
		return -1
	default:
		return cmp.Compare(*a.Distance, *b.Distance)
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
