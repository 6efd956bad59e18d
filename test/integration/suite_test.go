//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

// suiteT backs the in-process stacks built for each scenario.
var suiteT *testing.T

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	baseURL      string
	client       *http.Client
	response     *http.Response
	responseBody []byte
	lastID       int64
	remote       *fakeQuotable
}

// newTestContext targets BASE_URL when set, otherwise an in-process stack
// started by the first step of each scenario.
func newTestContext() *testContext {
	return &testContext{
		baseURL: os.Getenv("BASE_URL"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// reset clears response state between scenarios.
func (tc *testContext) reset() {
	if tc.response != nil && tc.response.Body != nil {
		tc.response.Body.Close()
	}
	tc.response = nil
	tc.responseBody = nil
	tc.lastID = 0
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := newTestContext()

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the quote service is running$`, tc.theServiceIsRunning)
	ctx.Step(`^the quote service is running with import from a healthy remote$`, tc.theServiceIsRunningWithImport)
	ctx.Step(`^a quote titled "([^"]*)" in category "([^"]*)" tagged "([^"]*)"$`, tc.aQuoteTitled)
	ctx.Step(`^an? (ACTIVE|INACTIVE|ARCHIVED) quote titled "([^"]*)"$`, tc.aQuoteWithStatus)
	ctx.Step(`^I send (GET|POST|PUT|DELETE) "([^"]*)"$`, tc.iSend)
	ctx.Step(`^I send (POST|PUT) "([^"]*)" with body:$`, tc.iSendWithBody)
	ctx.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	ctx.Step(`^the response should be a list of (\d+) quotes?$`, tc.theResponseShouldBeAList)
	ctx.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, tc.theJSONFieldShouldBe)
}

func (tc *testContext) theServiceIsRunning() error {
	if os.Getenv("BASE_URL") == "" {
		tc.baseURL = newStack(suiteT, stackOptions{}).server.URL
	}

	return tc.live()
}

func (tc *testContext) theServiceIsRunningWithImport() error {
	if os.Getenv("BASE_URL") != "" {
		return godog.ErrSkip
	}

	tc.remote = newFakeQuotable(suiteT)
	tc.baseURL = newStack(suiteT, stackOptions{
		QuotableURL: tc.remote.server.URL,
		Retry:       testRetry(),
		Circuit:     testCircuit(),
	}).server.URL

	return tc.live()
}

// live verifies the service is reachable.
func (tc *testContext) live() error {
	if err := tc.do(http.MethodGet, "/-/live", nil); err != nil {
		return fmt.Errorf("service is not running at %s: %w", tc.baseURL, err)
	}

	if tc.response.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status %d", tc.response.StatusCode)
	}

	return nil
}

func (tc *testContext) aQuoteTitled(title, category, tags string) error {
	return tc.createQuote(map[string]any{
		"title":    title,
		"category": category,
		"tags":     strings.Split(tags, ","),
	})
}

func (tc *testContext) aQuoteWithStatus(status, title string) error {
	return tc.createQuote(map[string]any{"title": title, "status": status})
}

func (tc *testContext) createQuote(fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	if err := tc.do(http.MethodPost, "/api/v1/quotes", body); err != nil {
		return err
	}

	if tc.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("creating quote: status %d: %s", tc.response.StatusCode, tc.responseBody)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(tc.responseBody, &created); err != nil {
		return fmt.Errorf("decoding created quote: %w", err)
	}

	tc.lastID = created.ID

	return nil
}

func (tc *testContext) iSend(method, path string) error {
	return tc.do(method, path, nil)
}

func (tc *testContext) iSendWithBody(method, path string, body *godog.DocString) error {
	return tc.do(method, path, []byte(body.Content))
}

// do sends a request, substituting {id} in path with the last created ID.
func (tc *testContext) do(method, path string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path = strings.ReplaceAll(path, "{id}", strconv.FormatInt(tc.lastID, 10))

	req, err := http.NewRequestWithContext(ctx, method, tc.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	tc.response = resp
	tc.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// theResponseStatusShouldBe asserts the response status code.
func (tc *testContext) theResponseStatusShouldBe(expectedCode int) error {
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}

	if tc.response.StatusCode != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s",
			expectedCode, tc.response.StatusCode, string(tc.responseBody))
	}

	return nil
}

// theResponseShouldContain asserts the response body contains the given text.
func (tc *testContext) theResponseShouldContain(text string) error {
	if tc.responseBody == nil {
		return fmt.Errorf("no response body")
	}

	if !strings.Contains(string(tc.responseBody), text) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, tc.responseBody)
	}

	return nil
}

func (tc *testContext) theResponseShouldBeAList(n int) error {
	var items []json.RawMessage
	if err := json.Unmarshal(tc.responseBody, &items); err != nil {
		return fmt.Errorf("response is not a JSON array: %w\nBody: %s", err, tc.responseBody)
	}

	if len(items) != n {
		return fmt.Errorf("expected %d quotes, got %d.\nBody: %s", n, len(items), tc.responseBody)
	}

	return nil
}

// theJSONFieldShouldBe compares a dotted path into the response object.
func (tc *testContext) theJSONFieldShouldBe(path, want string) error {
	var doc any
	if err := json.Unmarshal(tc.responseBody, &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}

	for key := range strings.SplitSeq(path, ".") {
		obj, ok := doc.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %v is not an object", path, doc)
		}

		if doc, ok = obj[key]; !ok {
			return fmt.Errorf("%s: missing key %q.\nBody: %s", path, key, tc.responseBody)
		}
	}

	if got := fmt.Sprint(doc); got != want {
		return fmt.Errorf("%s: expected %q, got %q", path, want, got)
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suiteT = t

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
