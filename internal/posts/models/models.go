package models

import (
	"strings"
	"time"
	"unicode/utf8"

	dErrors "postgate/pkg/domain-errors"
)

// ResourceKind is the kind posts are authorized as.
const ResourceKind = "post"

const (
	maxTitleLength   = 200
	maxContentLength = 100_000
)

// Post is a stored post. AuthorID is the owning user and never changes.
type Post struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows a listing. An empty AuthorIDs means every author.
type ListFilter struct {
	AuthorIDs []int64
}

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r *CreatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r *CreatePostRequest) Validate() error {
	if err := validateTitle(r.Title); err != nil {
		return err
	}
	return validateContent(r.Content)
}

// UpdatePostRequest is a partial update. Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (r *UpdatePostRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
}

func (r *UpdatePostRequest) Validate() error {
	if r.Title != nil {
		if err := validateTitle(*r.Title); err != nil {
			return err
		}
	}
	if r.Content != nil {
		return validateContent(*r.Content)
	}
	return nil
}

// Apply copies the set fields onto p and reports whether anything changed.
func (r *UpdatePostRequest) Apply(p *Post) bool {
	changed := false
	if r.Title != nil && *r.Title != p.Title {
		p.Title = *r.Title
		changed = true
	}
	if r.Content != nil && *r.Content != p.Content {
		p.Content = *r.Content
		changed = true
	}
	return changed
}

func validateTitle(title string) error {
	if title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	if len(content) > maxContentLength {
		return dErrors.New(dErrors.CodeValidation, "content is too long")
	}
	return nil
}

type PostResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type DeleteResponse struct {
	Message string `json:"message"`
}
