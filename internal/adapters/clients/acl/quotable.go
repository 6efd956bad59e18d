package acl

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/domain"
	"github.com/jsamuelsen/quote-service/internal/platform/logging"
)

const (
	// QuotableSourceName is the Source recorded on imported quotes.
	QuotableSourceName = "quotable.io"

	randomPath = "/quotes/random?limit=1"
	ellipsis   = "…"
)

// QuotableConfig contains configuration for the quotable.io source.
type QuotableConfig struct {
	// Client is the HTTP client to use; its BaseURL points at the quotable API.
	Client *clients.Client

	// Name is the health check and error name. Defaults to the client's service name.
	Name string

	Logger *slog.Logger
}

// QuotableSource implements ports.QuoteSource and ports.HealthChecker on top
// of the quotable.io API.
type QuotableSource struct {
	remote
	logger *slog.Logger
}

// NewQuotableSource creates a new quotable.io adapter. Panics if Client is nil.
func NewQuotableSource(cfg QuotableConfig) *QuotableSource {
	if cfg.Client == nil {
		panic("QuotableSource: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "quotable"
	}

	return &QuotableSource{
		remote:      remote{client: cfg.Client, name: name},
		logger:      logger.With(slog.String("component", "acl.QuotableSource")),
	}
}

// quotableQuote is the quotable.io wire format.
type quotableQuote struct {
	ID         string   `json:"_id"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	AuthorSlug string   `json:"authorSlug"`
	Tags       []string `json:"tags"`
	Length     int      `json:"length"`
}

// RandomQuote fetches one random quote and returns it unsaved.
func (s *QuotableSource) RandomQuote(ctx context.Context) (*domain.Quote, error) {
	logging.Trace(ctx, "fetching random quote", slog.String("downstream", s.name))

	external, err := exchange[[]quotableQuote](ctx, s.remote, http.MethodGet, randomPath, nil, "random quote")
	if err != nil {
		return nil, err
	}

	quotes, err := translateAll(external, translateQuotable)
	if err != nil {
		return nil, err
	}

	if len(quotes) == 0 {
		return nil, domain.NewUnavailableError(s.name, "empty random quote response")
	}

	q := quotes[0]
	logging.Trace(ctx, "translated remote quote",
		slog.String("author", q.Author),
		slog.Int("tags", q.TagCount()),
	)

	return q, nil
}

// translateQuotable maps a quotable payload onto a quote. The full text goes to
// the description; the title is the text cut to the title limit.
func translateQuotable(ext *quotableQuote) (*domain.Quote, error) {
	content := strings.Join(strings.Fields(ext.Content), " ")
	if content == "" {
		return nil, domain.NewValidationError("content", "is required")
	}

	q := domain.NewQuote(truncateTitle(content), content)
	q.Author = strings.TrimSpace(ext.Author)
	q.Source = QuotableSourceName
	q.SetTags(ext.Tags)

	if tags := q.Tags(); len(tags) > 0 {
		q.Category = tags[0]
	}

	return q, nil
}

// truncateTitle shortens s to MaxTitleLength runes, ending on an ellipsis
// when anything was cut.
func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= domain.MaxTitleLength {
		return s
	}

	runes := []rune(s)
	cut := strings.TrimSpace(string(runes[:domain.MaxTitleLength-1]))

	return cut + ellipsis
}

// Name implements ports.HealthChecker.
func (s *QuotableSource) Name() string {
	return s.name
}

// Check implements ports.HealthChecker. An open circuit reports unhealthy
// without calling out.
func (s *QuotableSource) Check(ctx context.Context) error {
	if s.client.CircuitState() == clients.StateOpen {
		return errors.New("circuit breaker open")
	}

	body, err := s.call(ctx, http.MethodGet, randomPath, nil, "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
