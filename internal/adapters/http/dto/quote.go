package dto

import (
	"strings"
	"time"

	"github.com/jsamuelsen/quote-service/internal/domain"
)

// DefaultPopularTags is how many tags /tags/popular returns without a limit.
const DefaultPopularTags = 5

// QuoteRequest is the body of create and update requests.
// Title rules are enforced by the service so both paths share one message set.
type QuoteRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description" validate:"max=2000"`
	Category    string   `json:"category" validate:"max=100"`
	Status      string   `json:"status" validate:"quotestatus"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=50"`
	Author      string   `json:"author" validate:"max=200"`
	Source      string   `json:"source" validate:"max=200"`
	Publisher   string   `json:"publisher" validate:"max=200"`
}

// ToDomain builds an unsaved quote from the request. An omitted status is
// left empty so the service can pick the default (ACTIVE on create, the
// current status on update).
func (r *QuoteRequest) ToDomain() *domain.Quote {
	q := domain.NewQuote(r.Title, r.Description)
	q.Category = r.Category
	q.Author = r.Author
	q.Source = r.Source
	q.Publisher = r.Publisher
	q.SetTags(r.Tags)
	q.Status = ""

	if status, err := domain.ParseStatus(r.Status); err == nil {
		q.Status = status
	}

	return q
}

// QuoteResponse is the JSON representation of a stored quote.
type QuoteResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author,omitempty"`
	Source      string    `json:"source,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewQuoteResponse converts a domain quote to its response form.
func NewQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Category:    q.Category,
		Status:      q.Status.String(),
		Tags:        q.Tags(),
		Author:      q.Author,
		Source:      q.Source,
		Publisher:   q.Publisher,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// NewQuoteListResponse converts a slice of quotes. It never returns nil so
// empty results encode as [] rather than null.
func NewQuoteListResponse(qs []*domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// NewGroupedResponse converts a category grouping.
func NewGroupedResponse(groups map[string][]*domain.Quote) map[string][]QuoteResponse {
	out := make(map[string][]QuoteResponse, len(groups))
	for category, qs := range groups {
		out[category] = NewQuoteListResponse(qs)
	}

	return out
}

// TagCountResponse is one entry of the popular tags list.
type TagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ArchiveResponse reports how many quotes an archive run changed.
type ArchiveResponse struct {
	Archived int `json:"archived"`
}

// PopularTagsQuery binds ?limit= for the popular tags endpoint.
type PopularTagsQuery struct {
	Limit int `form:"limit,default=5" validate:"gte=1,lte=100"`
}

// TagSetQuery binds ?tags=a,b for the tag set endpoints.
type TagSetQuery struct {
	Tags string `form:"tags"`
}

// List splits the comma-separated tag list, dropping blanks.
func (q *TagSetQuery) List() []string {
	var out []string
	for part := range strings.SplitSeq(q.Tags, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}

	return out
}

// ImportQuery binds ?count= for the import endpoint.
type ImportQuery struct {
	Count int `form:"count,default=1" validate:"gte=1"`
}
