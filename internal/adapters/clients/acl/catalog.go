package acl

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

const (
	// CatalogServiceName is the downstream name used in errors and telemetry.
	CatalogServiceName = "quote-catalog"

	catalogBasePath = "/api/v1/quotes"
)

// CatalogClient talks to a running quote service over its REST API and hands
// back domain values, so callers such as the CLI never see the wire format.
type CatalogClient struct {
	remote
}

// NewCatalogClient creates a client for the quote service at client's BaseURL.
func NewCatalogClient(client *clients.Client) *CatalogClient {
	return &CatalogClient{remote{client: client, name: client.ServiceName()}}
}

// catalogQuote mirrors the service's quote response.
type catalogQuote struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author,omitempty"`
	Source      string    `json:"source,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// TagCount is one entry of the popular tags list.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func translateCatalogQuote(ext *catalogQuote) (*domain.Quote, error) {
	if err := requirePositive(ext.ID, "id"); err != nil {
		return nil, err
	}

	status, err := domain.ParseStatus(ext.Status)
	if err != nil {
		return nil, err
	}

	q := domain.NewQuote(ext.Title, ext.Description)
	q.ID = ext.ID
	q.Category = ext.Category
	q.Status = status
	q.Author = ext.Author
	q.Source = ext.Source
	q.Publisher = ext.Publisher
	q.SetTags(ext.Tags)
	q.CreatedAt = ext.CreatedAt
	q.UpdatedAt = ext.UpdatedAt

	return q, nil
}

func (c *CatalogClient) quotes(ctx context.Context, method, path, op string) ([]*domain.Quote, error) {
	ext, err := exchange[[]catalogQuote](ctx, c.remote, method, path, nil, op)
	if err != nil {
		return nil, err
	}

	return translateAll(ext, translateCatalogQuote)
}

// List returns every stored quote.
func (c *CatalogClient) List(ctx context.Context) ([]*domain.Quote, error) {
	return c.quotes(ctx, http.MethodGet, catalogBasePath, "list quotes")
}

// Get returns the quote with the given ID.
func (c *CatalogClient) Get(ctx context.Context, id int64) (*domain.Quote, error) {
	if err := requirePositive(id, "id"); err != nil {
		return nil, err
	}

	ext, err := exchange[catalogQuote](ctx, c.remote, http.MethodGet, quotePath(id), nil, "get quote")
	if err != nil {
		return nil, withQuoteID(err, id)
	}

	return translateCatalogQuote(&ext)
}

// Create stores q and returns the saved quote with its assigned ID.
func (c *CatalogClient) Create(ctx context.Context, q *domain.Quote) (*domain.Quote, error) {
	ext, err := exchange[catalogQuote](ctx, c.remote, http.MethodPost, catalogBasePath, catalogQuote{
		Title:       q.Title,
		Description: q.Description,
		Category:    q.Category,
		Status:      q.Status.String(),
		Tags:        q.Tags(),
		Author:      q.Author,
		Source:      q.Source,
		Publisher:   q.Publisher,
	}, "create quote")
	if err != nil {
		return nil, err
	}

	return translateCatalogQuote(&ext)
}

// Delete removes the quote with the given ID.
func (c *CatalogClient) Delete(ctx context.Context, id int64) error {
	if err := requirePositive(id, "id"); err != nil {
		return err
	}

	body, err := c.call(ctx, http.MethodDelete, quotePath(id), nil, "delete quote")
	if err != nil {
		return withQuoteID(err, id)
	}

	return body.Close()
}

// Search returns quotes whose text or category contains query.
func (c *CatalogClient) Search(ctx context.Context, query string) ([]*domain.Quote, error) {
	return c.quotes(ctx, http.MethodGet, catalogBasePath+"/search?query="+url.QueryEscape(query), "search quotes")
}

// Tags returns every distinct tag in use.
func (c *CatalogClient) Tags(ctx context.Context) ([]string, error) {
	return exchange[[]string](ctx, c.remote, http.MethodGet, catalogBasePath+"/tags", nil, "list tags")
}

// PopularTags returns the limit most used tags.
func (c *CatalogClient) PopularTags(ctx context.Context, limit int) ([]TagCount, error) {
	if err := requirePositive(limit, "limit"); err != nil {
		return nil, err
	}

	return exchange[[]TagCount](ctx, c.remote, http.MethodGet,
		catalogBasePath+"/tags/popular?limit="+strconv.Itoa(limit), nil, "popular tags")
}

// StatusStats returns the number of quotes per status.
func (c *CatalogClient) StatusStats(ctx context.Context) (map[domain.Status]int, error) {
	raw, err := exchange[map[string]int](ctx, c.remote, http.MethodGet, catalogBasePath+"/stats/status", nil, "status stats")
	if err != nil {
		return nil, err
	}

	out := make(map[domain.Status]int, len(raw))
	for name, n := range raw {
		status, err := domain.ParseStatus(name)
		if err != nil {
			return nil, err
		}

		out[status] = n
	}

	return out, nil
}

// ArchiveInactive archives every inactive quote and returns how many changed.
func (c *CatalogClient) ArchiveInactive(ctx context.Context) (int, error) {
	resp, err := exchange[struct {
		Archived int `json:"archived"`
	}](ctx, c.remote, http.MethodPost, catalogBasePath+"/archive", nil, "archive inactive")

	return resp.Archived, err
}

// Import asks the service to pull count quotes from its remote source.
func (c *CatalogClient) Import(ctx context.Context, count int) ([]*domain.Quote, error) {
	if err := requirePositive(count, "count"); err != nil {
		return nil, err
	}

	return c.quotes(ctx, http.MethodPost, catalogBasePath+"/import?count="+strconv.Itoa(count), "import quotes")
}

func quotePath(id int64) string {
	return catalogBasePath + "/" + strconv.FormatInt(id, 10)
}

// withQuoteID replaces an untyped not-found with one naming the quote.
func withQuoteID(err error, id int64) error {
	if err != nil && domain.IsNotFound(err) {
		return domain.NewNotFoundError(id)
	}

	return err
}
