package models

import "time"

// Post represents a blog post as delivered by the content source.
type Post struct {
	Title   string `json:"title" yaml:"title"`
	Slug    string `json:"slug" yaml:"slug"`
	Author  string `json:"author" yaml:"author"`
	Date    string `json:"date" yaml:"date"`
	Content string `json:"content" yaml:"content"`
}

// Comment represents a reader comment on a blog post.
type Comment struct {
	ID        string     `json:"id"`
	PostSlug  string     `json:"postSlug" validate:"required,max=200"`
	Author    string     `json:"author" validate:"required,max=100"`
	Content   string     `json:"content" validate:"required,max=5000"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// SortField names the post attribute a listing is ordered by.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByTitle  SortField = "title"
	SortByAuthor SortField = "author"
)

// SortOrder is the direction of a post listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PostQuery holds the filter and sort parameters of a post listing request.
type PostQuery struct {
	Search    string
	Author    string
	StartDate string
	EndDate   string
	SortField SortField
	SortOrder SortOrder
}

// QueryResult is the outcome of running a PostQuery over a post set.
type QueryResult struct {
	Results []Post
	Total   int
}

// PostsMeta describes how a post listing was produced.
type PostsMeta struct {
	Total   int         `json:"total"`
	Filters PostFilters `json:"filters"`
	Sort    PostSort    `json:"sort"`
}

// PostFilters echoes the filters applied to a listing; unset filters are null.
type PostFilters struct {
	Author    *string `json:"author"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Search    *string `json:"search"`
}

// PostSort echoes the effective ordering of a listing.
type PostSort struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// PostList is the response body of a post listing.
type PostList struct {
	Posts []Post    `json:"posts"`
	Meta  PostsMeta `json:"meta"`
}
