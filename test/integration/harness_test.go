//go:build integration

package integration

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-service/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quote-service/internal/adapters/http"
	"github.com/jsamuelsen/quote-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-service/internal/adapters/storage"
	"github.com/jsamuelsen/quote-service/internal/app"
	"github.com/jsamuelsen/quote-service/internal/platform/config"
	"github.com/jsamuelsen/quote-service/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stack is an in-process quote service.
type stack struct {
	server   *httptest.Server
	store    *storage.MemoryStore
	quotable *acl.QuotableSource
}

// stackOptions configures newStack. An empty QuotableURL leaves import disabled.
type stackOptions struct {
	QuotableURL string
	MaxImport   int
	Retry       config.RetryConfig
	Circuit     config.CircuitBreakerConfig
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRetry retries quickly so failure paths stay fast.
func testRetry() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func testCircuit() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		MaxFailures:   3,
		Timeout:       200 * time.Millisecond,
		HalfOpenLimit: 1,
	}
}

// newStack wires storage, service, handlers and the production router
// behind an httptest server. It builds the same graph as cmd/service.
func newStack(tb testing.TB, opts stackOptions) *stack {
	tb.Helper()

	logger := discardLogger()
	st := &stack{store: storage.NewMemoryStore()}

	health := ports.NewHealthRegistry()
	if err := health.Register(st.store); err != nil {
		tb.Fatal(err)
	}

	var source ports.QuoteSource

	if opts.QuotableURL != "" {
		client, err := clients.New(&clients.Config{
			BaseURL:     opts.QuotableURL,
			ServiceName: "quotable",
			Timeout:     2 * time.Second,
			Retry:       opts.Retry,
			Circuit:     opts.Circuit,
			Logger:      logger,
		})
		if err != nil {
			tb.Fatal(err)
		}

		st.quotable = acl.NewQuotableSource(acl.QuotableConfig{Client: client, Logger: logger})
		if err := health.RegisterOptional(st.quotable); err != nil {
			tb.Fatal(err)
		}

		source = st.quotable
	}

	registry := prometheus.NewRegistry()
	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Repository:        st.store,
		Source:            source,
		Metrics:           app.NewMetrics(registry),
		Logger:            logger,
		MaxImport:         opts.MaxImport,
		ImportConcurrency: 2,
	})

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "quote-service", Version: "test", Environment: "test"},
		handlers.NewHealthHandler(health, handlers.NewBuildInfo("test", "integration", "now"), handlers.WithGatherer(registry)),
		handlers.NewQuoteHandler(svc, handlers.WithImport(source != nil)),
	))

	st.server = httptest.NewServer(engine)
	tb.Cleanup(st.server.Close)

	return st
}

// catalog returns a CatalogClient pointed at the stack.
func (s *stack) catalog(tb testing.TB) *acl.CatalogClient {
	tb.Helper()

	client, err := clients.New(&clients.Config{
		BaseURL:     s.server.URL,
		ServiceName: acl.CatalogServiceName,
		Timeout:     2 * time.Second,
		Retry:       config.RetryConfig{MaxAttempts: 1},
		Circuit:     testCircuit(),
		Logger:      discardLogger(),
	})
	if err != nil {
		tb.Fatal(err)
	}

	return acl.NewCatalogClient(client)
}

// fakeQuotable serves /quotes/random in the quotable wire format. failFirst
// requests answer with failStatus before it starts succeeding.
type fakeQuotable struct {
	server     *httptest.Server
	calls      atomic.Int64
	failFirst  atomic.Int64
	failStatus int
	down       atomic.Bool
}

func newFakeQuotable(tb testing.TB) *fakeQuotable {
	tb.Helper()

	f := &fakeQuotable{failStatus: http.StatusServiceUnavailable}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	tb.Cleanup(f.server.Close)

	return f
}

func (f *fakeQuotable) serve(w http.ResponseWriter, r *http.Request) {
	n := f.calls.Add(1)

	if r.URL.Path != "/quotes/random" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if f.down.Load() || f.failFirst.Add(-1) >= 0 {
		w.WriteHeader(f.failStatus)
		_, _ = w.Write([]byte(`{"statusCode":503,"statusMessage":"maintenance"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `[{"_id":"q%d","content":"Remote wisdom number %d","author":"Author %d","tags":["Wisdom","Famous Quotes"]}]`, n, n, n)
}
