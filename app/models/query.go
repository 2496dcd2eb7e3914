package models

import "strings"

// Normalize fills defaults and folds unknown sort values back to them.
func (q PostQuery) Normalize() PostQuery {
	q.StartDate = strings.TrimSpace(q.StartDate)
	q.EndDate = strings.TrimSpace(q.EndDate)

	switch SortField(strings.ToLower(string(q.SortField))) {
	case SortByTitle:
		q.SortField = SortByTitle
	case SortByAuthor:
		q.SortField = SortByAuthor
	default:
		q.SortField = SortByDate
	}

	if SortOrder(strings.ToLower(string(q.SortOrder))) == SortAsc {
		q.SortOrder = SortAsc
	} else {
		q.SortOrder = SortDesc
	}
	return q
}

// Meta describes the query and its result size for a listing response.
func (q PostQuery) Meta(total int) PostsMeta {
	q = q.Normalize()
	return PostsMeta{
		Total: total,
		Filters: PostFilters{
			Author:    optional(q.Author),
			StartDate: optional(q.StartDate),
			EndDate:   optional(q.EndDate),
			Search:    optional(q.Search),
		},
		Sort: PostSort{Field: q.SortField, Order: q.SortOrder},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
