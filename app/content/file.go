package content

import (
	"context"
	"fmt"
	"os"

	"blogapi/app/models"

	"gopkg.in/yaml.v3"
)

// FileSource reads posts from a YAML document of the form
//
//	posts:
//	  - title: ...
//	    slug: ...
//
// The file is re-read on every call.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type postFile struct {
	Posts []models.Post `yaml:"posts"`
}

func (s *FileSource) FetchAllPosts(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &models.UpstreamError{Op: "file: read posts", Err: err}
	}

	var doc postFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &models.UpstreamError{Op: "file: parse posts", Err: fmt.Errorf("%s: %w", s.path, err)}
	}
	if doc.Posts == nil {
		doc.Posts = []models.Post{}
	}
	return doc.Posts, nil
}

func (s *FileSource) FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	posts, err := s.FetchAllPosts(ctx)
	if err != nil {
		return nil, err
	}
	return findBySlug(posts, slug), nil
}
