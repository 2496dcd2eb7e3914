package services

import (
	"slices"
	"strings"
	"time"

	"blogapi/app/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PostQueryEngine filters and orders post sets. It is safe for concurrent use.
type PostQueryEngine struct {
	tag language.Tag
	now func() time.Time
}

// NewPostQueryEngine returns an engine that orders titles and authors by the
// collation rules of locale. An unknown locale falls back to English.
func NewPostQueryEngine(locale string) *PostQueryEngine {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &PostQueryEngine{tag: tag, now: time.Now}
}

var defaultEngine = NewPostQueryEngine("en")

// QueryPosts runs q over posts with English collation.
func QueryPosts(posts []models.Post, q models.PostQuery) models.QueryResult {
	return defaultEngine.Query(posts, q)
}

type datedPost struct {
	post models.Post
	at   time.Time
}

// Query returns the posts matching every filter of q in the requested order.
// The input slice is never modified.
func (e *PostQueryEngine) Query(posts []models.Post, q models.PostQuery) models.QueryResult {
	q = q.Normalize()
	match := newPostMatcher(q)

	// Undated posts sort as if published at the moment of the query.
	now := e.now().UTC()
	matched := make([]datedPost, 0, len(posts))
	for _, p := range posts {
		if !match(p) {
			continue
		}
		at, ok := p.PublishedAt()
		if !ok {
			at = now
		}
		matched = append(matched, datedPost{post: p, at: at})
	}

	cmp := e.comparator(q.SortField)
	if q.SortOrder == models.SortDesc {
		asc := cmp
		cmp = func(a, b datedPost) int { return asc(b, a) }
	}
	slices.SortStableFunc(matched, cmp)

	results := make([]models.Post, len(matched))
	for i, dp := range matched {
		results[i] = dp.post
	}
	return models.QueryResult{Results: results, Total: len(results)}
}

func (e *PostQueryEngine) comparator(field models.SortField) func(a, b datedPost) int {
	switch field {
	case models.SortByTitle, models.SortByAuthor:
		// Collators keep internal buffers, so each query gets its own.
		col := collate.New(e.tag)
		key := func(p models.Post) string { return p.Title }
		if field == models.SortByAuthor {
			key = func(p models.Post) string { return p.Author }
		}
		return func(a, b datedPost) int {
			return col.CompareString(key(a.post), key(b.post))
		}
	default:
		return func(a, b datedPost) int {
			return a.at.Compare(b.at)
		}
	}
}

// newPostMatcher builds the conjunction of the filters set on q.
func newPostMatcher(q models.PostQuery) func(models.Post) bool {
	var preds []func(models.Post) bool

	if q.Search != "" {
		term := strings.ToLower(q.Search)
		preds = append(preds, func(p models.Post) bool {
			return strings.Contains(strings.ToLower(p.Title), term) ||
				strings.Contains(strings.ToLower(p.Content), term) ||
				strings.Contains(strings.ToLower(p.Author), term)
		})
	}

	if q.Author != "" {
		preds = append(preds, func(p models.Post) bool {
			return p.Author != "" && strings.EqualFold(p.Author, q.Author)
		})
	}

	if q.StartDate != "" || q.EndDate != "" {
		preds = append(preds, dateRange(q.StartDate, q.EndDate))
	}

	return func(p models.Post) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// dateRange matches posts dated within [start 00:00, end 23:59:59.999999999]
// UTC. A bound that does not parse matches nothing.
func dateRange(start, end string) func(models.Post) bool {
	var from, to time.Time
	hasFrom, hasTo := start != "", end != ""
	if hasFrom {
		day, ok := models.ParseDate(start)
		if !ok {
			return func(models.Post) bool { return false }
		}
		from = startOfDay(day)
	}
	if hasTo {
		day, ok := models.ParseDate(end)
		if !ok {
			return func(models.Post) bool { return false }
		}
		to = startOfDay(day).AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	return func(p models.Post) bool {
		at, ok := p.PublishedAt()
		if !ok {
			return false
		}
		if hasFrom && at.Before(from) {
			return false
		}
		if hasTo && at.After(to) {
			return false
		}
		return true
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
