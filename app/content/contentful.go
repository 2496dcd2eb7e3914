package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogapi/app/models"
)

const (
	DefaultContentfulBaseURL = "https://cdn.contentful.com"
	defaultPageSize          = 100
	maxPageSize              = 1000
)

// ContentfulConfig locates a Contentful space and its blog post content type.
type ContentfulConfig struct {
	BaseURL     string
	SpaceID     string
	AccessToken string
	Environment string
	ContentType string
	PageSize    int
	Timeout     time.Duration
}

// ContentfulSource reads posts from the Contentful Content Delivery API.
type ContentfulSource struct {
	cfg    ContentfulConfig
	client *http.Client
	log    *slog.Logger
}

func NewContentfulSource(cfg ContentfulConfig, log *slog.Logger) *ContentfulSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultContentfulBaseURL
	}
	if cfg.Environment == "" {
		cfg.Environment = "master"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "blogPost"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ContentfulSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

type entriesResponse struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Items []struct {
		Fields postFields `json:"fields"`
	} `json:"items"`
}

type postFields struct {
	Title   json.RawMessage `json:"title"`
	Slug    json.RawMessage `json:"slug"`
	Author  json.RawMessage `json:"author"`
	Date    json.RawMessage `json:"date"`
	Content json.RawMessage `json:"content"`
}

func (f postFields) post() models.Post {
	return models.Post{
		Title:   fieldText(f.Title),
		Slug:    fieldText(f.Slug),
		Author:  fieldText(f.Author),
		Date:    fieldText(f.Date),
		Content: fieldText(f.Content),
	}
}

// FetchAllPosts pages through every entry of the post content type, newest first.
func (s *ContentfulSource) FetchAllPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	for skip := 0; ; {
		params := url.Values{}
		params.Set("content_type", s.cfg.ContentType)
		params.Set("order", "-fields.date")
		params.Set("limit", strconv.Itoa(s.cfg.PageSize))
		params.Set("skip", strconv.Itoa(skip))

		page, err := s.entries(ctx, params)
		if err != nil {
			return nil, &models.UpstreamError{Op: "contentful: fetch posts", Err: err}
		}
		for _, item := range page.Items {
			posts = append(posts, item.Fields.post())
		}

		skip += len(page.Items)
		if len(page.Items) == 0 || skip >= page.Total {
			break
		}
	}

	s.log.Debug("fetched posts from contentful", "count", len(posts))
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// FetchPostBySlug looks up a single post by its slug field.
func (s *ContentfulSource) FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	params := url.Values{}
	params.Set("content_type", s.cfg.ContentType)
	params.Set("fields.slug", slug)
	params.Set("limit", "1")

	page, err := s.entries(ctx, params)
	if err != nil {
		return nil, &models.UpstreamError{Op: "contentful: fetch post " + slug, Err: err}
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	post := page.Items[0].Fields.post()
	return &post, nil
}

func (s *ContentfulSource) entries(ctx context.Context, params url.Values) (*entriesResponse, error) {
	endpoint := fmt.Sprintf("%s/spaces/%s/environments/%s/entries?%s",
		strings.TrimRight(s.cfg.BaseURL, "/"),
		url.PathEscape(s.cfg.SpaceID),
		url.PathEscape(s.cfg.Environment),
		params.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("contentful request failed", "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.log.Error("contentful returned an error", "status", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var page entriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	return &page, nil
}

// fieldText flattens a field to text. Plain strings pass through; rich text
// documents contribute the values of their text nodes.
func fieldText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc richTextNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var b strings.Builder
	doc.appendText(&b)
	return strings.TrimSpace(b.String())
}

type richTextNode struct {
	NodeType string         `json:"nodeType"`
	Value    string         `json:"value"`
	Content  []richTextNode `json:"content"`
}

func (n richTextNode) appendText(b *strings.Builder) {
	if n.NodeType == "text" {
		b.WriteString(n.Value)
		return
	}
	for _, child := range n.Content {
		child.appendText(b)
	}
	if n.NodeType == "paragraph" || strings.HasPrefix(n.NodeType, "heading") {
		b.WriteString("\n")
	}
}
