package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-service/internal/app"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

// QuoteHandler handles the /quotes endpoints.
type QuoteHandler struct {
	service       *app.QuoteService
	importEnabled bool
}

// QuoteHandlerOption customizes a QuoteHandler.
type QuoteHandlerOption func(*QuoteHandler)

// WithImport exposes POST /quotes/import when enabled is true.
func WithImport(enabled bool) QuoteHandlerOption {
	return func(h *QuoteHandler) {
		h.importEnabled = enabled
	}
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService, opts ...QuoteHandlerOption) *QuoteHandler {
	h := &QuoteHandler{service: service}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// List handles GET /api/v1/quotes.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	quotes, err := h.service.FindAll(c.Request.Context())
	h.respondList(c, quotes, err)
}

// Get handles GET /api/v1/quotes/:id.
//
// @Summary Get a quote by ID
// @Tags quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	quote, err := h.service.FindByID(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Create handles POST /api/v1/quotes.
//
// @Summary Create a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.QuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.QuoteRequest
	if !bindBody(c, &req) {
		return
	}

	saved, err := h.service.Save(c.Request.Context(), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", c.FullPath()+"/"+strconv.FormatInt(saved.ID, 10))
	c.JSON(http.StatusCreated, dto.NewQuoteResponse(saved))
}

// Update handles PUT /api/v1/quotes/:id.
//
// @Summary Replace a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param quote body dto.QuoteRequest true "Quote"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [put]
func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.QuoteRequest
	if !bindBody(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(updated))
}

// Delete handles DELETE /api/v1/quotes/:id.
//
// @Summary Delete a quote
// @Tags quotes
// @Param id path int true "Quote ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [delete]
func (h *QuoteHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ByStatus handles GET /api/v1/quotes/status/:status.
func (h *QuoteHandler) ByStatus(c *gin.Context) {
	status, err := domain.ParseStatus(c.Param("status"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	quotes, err := h.service.FindByStatus(c.Request.Context(), status)
	h.respondList(c, quotes, err)
}

// ByCategory handles GET /api/v1/quotes/category/:category.
func (h *QuoteHandler) ByCategory(c *gin.Context) {
	quotes, err := h.service.FindByCategory(c.Request.Context(), c.Param("category"))
	h.respondList(c, quotes, err)
}

// ByTag handles GET /api/v1/quotes/tag/:tag.
func (h *QuoteHandler) ByTag(c *gin.Context) {
	quotes, err := h.service.FindByTag(c.Request.Context(), c.Param("tag"))
	h.respondList(c, quotes, err)
}

// ByAuthor handles GET /api/v1/quotes/author/:author.
func (h *QuoteHandler) ByAuthor(c *gin.Context) {
	quotes, err := h.service.FindByAuthor(c.Request.Context(), c.Param("author"))
	h.respondList(c, quotes, err)
}

// BySource handles GET /api/v1/quotes/source/:source.
func (h *QuoteHandler) BySource(c *gin.Context) {
	quotes, err := h.service.FindBySource(c.Request.Context(), c.Param("source"))
	h.respondList(c, quotes, err)
}

// ByPublisher handles GET /api/v1/quotes/publisher/:publisher.
func (h *QuoteHandler) ByPublisher(c *gin.Context) {
	quotes, err := h.service.FindByPublisher(c.Request.Context(), c.Param("publisher"))
	h.respondList(c, quotes, err)
}

// Grouped handles GET /api/v1/quotes/grouped. Uncategorized quotes are
// listed under the empty key.
func (h *QuoteHandler) Grouped(c *gin.Context) {
	groups, err := h.service.GroupByCategory(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGroupedResponse(groups))
}

// Tags handles GET /api/v1/quotes/tags.
func (h *QuoteHandler) Tags(c *gin.Context) {
	tags, err := h.service.AllUniqueTags(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

// PopularTags handles GET /api/v1/quotes/tags/popular?limit=n.
func (h *QuoteHandler) PopularTags(c *gin.Context) {
	var q dto.PopularTagsQuery
	if !bindQuery(c, &q) {
		return
	}

	counts, err := h.service.MostPopularTags(c.Request.Context(), q.Limit)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := make([]dto.TagCountResponse, 0, len(counts))
	for _, tc := range counts {
		resp = append(resp, dto.TagCountResponse{Tag: tc.Tag, Count: tc.Count})
	}

	c.JSON(http.StatusOK, resp)
}

// WithAllTags handles GET /api/v1/quotes/tags/all?tags=a,b.
func (h *QuoteHandler) WithAllTags(c *gin.Context) {
	var q dto.TagSetQuery
	if !bindQuery(c, &q) {
		return
	}

	quotes, err := h.service.FindByAllTags(c.Request.Context(), q.List())
	h.respondList(c, quotes, err)
}

// WithAnyTag handles GET /api/v1/quotes/tags/any?tags=a,b.
func (h *QuoteHandler) WithAnyTag(c *gin.Context) {
	var q dto.TagSetQuery
	if !bindQuery(c, &q) {
		return
	}

	quotes, err := h.service.FindByAnyTag(c.Request.Context(), q.List())
	h.respondList(c, quotes, err)
}

// StatusStats handles GET /api/v1/quotes/stats/status.
func (h *QuoteHandler) StatusStats(c *gin.Context) {
	counts, err := h.service.CountByStatus(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// Search handles GET /api/v1/quotes/search?query=q.
func (h *QuoteHandler) Search(c *gin.Context) {
	query, ok := c.GetQuery("query")
	if !ok {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "query parameter is required")
		return
	}

	quotes, err := h.service.Search(c.Request.Context(), query)
	h.respondList(c, quotes, err)
}

// Archive handles POST /api/v1/quotes/archive.
func (h *QuoteHandler) Archive(c *gin.Context) {
	n, err := h.service.ArchiveInactive(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ArchiveResponse{Archived: n})
}

// Import handles POST /api/v1/quotes/import?count=n.
//
// @Summary Import random quotes from the remote source
// @Tags quotes
// @Produce json
// @Param count query int false "Number of quotes" default(1)
// @Success 201 {array} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	var q dto.ImportQuery
	if !bindQuery(c, &q) {
		return
	}

	imported, err := h.service.ImportRandom(c.Request.Context(), q.Count)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteListResponse(imported))
}

// RegisterQuoteRoutes registers the quote routes under /quotes on rg.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")

	quotes.GET("", h.List)
	quotes.POST("", h.Create)
	quotes.GET("/:id", h.Get)
	quotes.PUT("/:id", h.Update)
	quotes.DELETE("/:id", h.Delete)

	quotes.GET("/status/:status", h.ByStatus)
	quotes.GET("/category/:category", h.ByCategory)
	quotes.GET("/tag/:tag", h.ByTag)
	quotes.GET("/author/:author", h.ByAuthor)
	quotes.GET("/source/:source", h.BySource)
	quotes.GET("/publisher/:publisher", h.ByPublisher)

	quotes.GET("/grouped", h.Grouped)
	quotes.GET("/tags", h.Tags)
	quotes.GET("/tags/popular", h.PopularTags)
	quotes.GET("/tags/all", h.WithAllTags)
	quotes.GET("/tags/any", h.WithAnyTag)
	quotes.GET("/stats/status", h.StatusStats)
	quotes.GET("/search", h.Search)

	quotes.POST("/archive", h.Archive)

	if h.importEnabled {
		quotes.POST("/import", h.Import)
	}
}

func (h *QuoteHandler) respondList(c *gin.Context, quotes []*domain.Quote, err error) {
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteListResponse(quotes))
}

// pathID parses the :id parameter, writing a 400 response when it is not a
// positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "id must be a positive integer")
		return 0, false
	}

	return id, true
}

func bindBody(c *gin.Context, v any) bool {
	return respondBindError(c, dto.BindAndValidate(c, v))
}

func bindQuery(c *gin.Context, v any) bool {
	return respondBindError(c, dto.BindQueryAndValidate(c, v))
}

// respondBindError writes the 400 response for err and reports whether the
// handler may continue.
func respondBindError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, dto.ErrBinding):
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "malformed request")
	default:
		dto.HandleError(c, err)
	}

	return false
}
