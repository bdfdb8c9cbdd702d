package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/phrase"
	"github.com/example/go-tweetnorm/internal/server"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testTrie() *phrase.Trie {
	return phrase.Build([]string{"new york", "boston"}, phrase.WithLogger(discardLogger()))
}

func newTestHandler(opts ...server.Option) http.Handler {
	trie := testTrie()
	opts = append([]server.Option{server.WithLogger(discardLogger())}, opts...)
	return server.NewHandler(filter.NewTweetFilter(trie), trie, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["phrases"])

	_, err := uuid.Parse(rec.Header().Get(server.RequestIDHeader))
	assert.NoError(t, err, "generated request id should be a uuid")
}

func TestRequestIDEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	newTestHandler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(server.RequestIDHeader))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := newTestHandler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/v1/normalize", "").Code)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(server.WithCORSOrigins([]string{"https://example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

// ---------------------------------------------------------------------------
// POST /v1/tokenize
// ---------------------------------------------------------------------------

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"meta by default", `{"text":"RT @bob: Hi"}`, []string{"<$RT$>", "<$@$>", "hi"}},
		{"meta off", `{"text":"RT @bob: Hi","meta":false}`, []string{"rt", "bob", "hi"}},
		{"no tokens", `{"text":"!!!"}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestHandler(), http.MethodPost, "/v1/tokenize", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body struct {
				Tokens []string `json:"tokens"`
			}
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.want, body.Tokens)
		})
	}
}

func TestTokenize_MissingText(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodPost, "/v1/tokenize", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text is required")
}

// ---------------------------------------------------------------------------
// POST /v1/normalize
// ---------------------------------------------------------------------------

type normalizeResult struct {
	Text     string   `json:"text"`
	Tokens   []string `json:"tokens"`
	Replaced []string `json:"replaced"`
}

func TestNormalize_Single(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodPost, "/v1/normalize", `{"text":"Snow in Boston :("}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got normalizeResult
	decodeBody(t, rec, &got)
	assert.Equal(t, []string{"snow", "<$location$>", "<$emote:frown$>"}, got.Tokens)
	assert.Equal(t, "snow <$location$> <$emote:frown$>", got.Text)
	assert.Equal(t, []string{"boston"}, got.Replaced)
}

func TestNormalize_Batch(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodPost, "/v1/normalize", `{"texts":["hello new york","boston"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Results []normalizeResult `json:"results"`
	}
	decodeBody(t, rec, &got)
	require.Len(t, got.Results, 2)
	assert.Equal(t, []string{"hello", "<$location$>"}, got.Results[0].Tokens)
	assert.Equal(t, []string{"<$location$>"}, got.Results[1].Tokens)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		opts     []server.Option
		body     string
		wantCode int
		wantMsg  string
	}{
		{"empty object", nil, `{}`, http.StatusBadRequest, "text or texts is required"},
		{"empty batch", nil, `{"texts":[]}`, http.StatusBadRequest, "text or texts is required"},
		{"both fields", nil, `{"text":"a","texts":["b"]}`, http.StatusBadRequest, "cannot be combined"},
		{"empty batch entry", nil, `{"texts":["a",""]}`, http.StatusBadRequest, "texts[1] is required"},
		{"whitespace only", nil, `{"text":"   "}`, http.StatusBadRequest, "text is empty"},
		{"invalid json", nil, `{"text":`, http.StatusBadRequest, "invalid JSON"},
		{
			"text too long",
			[]server.Option{server.WithMaxTextBytes(10)},
			`{"text":"hello boston"}`,
			http.StatusRequestEntityTooLarge,
			"too long",
		},
		{
			"batch too large",
			[]server.Option{server.WithMaxBatch(2)},
			`{"texts":["a","b","c"]}`,
			http.StatusRequestEntityTooLarge,
			"exceeds maximum of 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestHandler(tt.opts...), http.MethodPost, "/v1/normalize", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

type slowNormalizer struct{ delay time.Duration }

func (s slowNormalizer) Normalize(string) filter.Result {
	time.Sleep(s.delay)
	return filter.Result{Tokens: []string{"late"}}
}

func TestNormalize_Timeout(t *testing.T) {
	h := server.NewHandler(slowNormalizer{delay: 100 * time.Millisecond}, nil,
		server.WithLogger(discardLogger()),
		server.WithRequestTimeout(10*time.Millisecond),
	)

	rec := do(t, h, http.MethodPost, "/v1/normalize", `{"text":"boston"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

type blockingNormalizer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingNormalizer) Normalize(string) filter.Result {
	b.started <- struct{}{}
	<-b.release
	return filter.Result{}
}

func TestNormalize_WorkerLimit(t *testing.T) {
	norm := &blockingNormalizer{started: make(chan struct{}), release: make(chan struct{})}
	h := server.NewHandler(norm, nil,
		server.WithLogger(discardLogger()),
		server.WithWorkers(1),
		server.WithRequestTimeout(50*time.Millisecond),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		do(t, h, http.MethodPost, "/v1/normalize", `{"text":"first"}`)
	}()
	<-norm.started

	rec := do(t, h, http.MethodPost, "/v1/normalize", `{"text":"second"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(norm.release)
	wg.Wait()
}

// ---------------------------------------------------------------------------
// GET /v1/phrases/match
// ---------------------------------------------------------------------------

func TestMatch(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodGet, "/v1/phrases/match?text=I+love+New+York", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Tokens  []string       `json:"tokens"`
		Matches []phrase.Match `json:"matches"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, []string{"i", "love", "new", "york"}, got.Tokens)
	assert.Equal(t, []phrase.Match{{Start: 2, Length: 2, Text: "new york"}}, got.Matches)
}

func TestMatch_NonOverlapping(t *testing.T) {
	trie := phrase.Build([]string{"new york city", "york"}, phrase.WithLogger(discardLogger()))
	h := server.NewHandler(filter.NewTweetFilter(trie), trie, server.WithLogger(discardLogger()))

	rec := do(t, h, http.MethodGet, "/v1/phrases/match?text=new+york+city+or+york", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Matches []phrase.Match `json:"matches"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, []phrase.Match{
		{Start: 0, Length: 3, Text: "new york city"},
		{Start: 4, Length: 1, Text: "york"},
	}, got.Matches)
}

func TestMatch_NoMatchesIsEmptyList(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodGet, "/v1/phrases/match?text=nothing", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matches":[]`)
}

func TestMatch_MissingText(t *testing.T) {
	rec := do(t, newTestHandler(), http.MethodGet, "/v1/phrases/match", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// logging
// ---------------------------------------------------------------------------

// capturingHandler captures all slog records during a test.
type capturingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(_ string) slog.Handler      { return c }

func (c *capturingHandler) find(msg string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Message != msg {
			continue
		}
		m := make(map[string]any)
		r.Attrs(func(a slog.Attr) bool {
			m[a.Key] = a.Value.Any()
			return true
		})
		return m, true
	}
	return nil, false
}

func TestRequestLogging(t *testing.T) {
	capture := &capturingHandler{}
	trie := testTrie()
	h := server.NewHandler(filter.NewTweetFilter(trie), trie, server.WithLogger(slog.New(capture)))

	req := httptest.NewRequest(http.MethodPost, "/v1/normalize", bytes.NewBufferString(`{"text":"boston"}`))
	req.Header.Set(server.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	attrs, ok := capture.find("request")
	require.True(t, ok, "want a request log record")
	assert.Equal(t, "req-42", attrs["request_id"])
	assert.Equal(t, "/v1/normalize", attrs["path"])
	assert.Equal(t, int64(http.StatusOK), attrs["status"])

	done, ok := capture.find("normalization complete")
	require.True(t, ok, "want a completion record")
	assert.Equal(t, int64(1), done["replaced"])
}
