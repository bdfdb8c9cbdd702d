package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/phrase"
	"github.com/example/go-tweetnorm/internal/text"
	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// bodySlack covers JSON framing around the texts themselves.
const bodySlack = 4096

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Phrases int    `json:"phrases"`
}

type tokenizeRequest struct {
	Text string `json:"text" validate:"required"`
	// Meta defaults to true.
	Meta *bool `json:"meta"`
}

type tokenizeResponse struct {
	Tokens []string `json:"tokens"`
}

type normalizeRequest struct {
	Text  string   `json:"text" validate:"excluded_with=Texts"`
	Texts []string `json:"texts" validate:"omitempty,dive,required"`
}

type normalizeResult struct {
	Text     string   `json:"text"`
	Tokens   []string `json:"tokens"`
	Replaced []string `json:"replaced,omitempty"`
}

type batchResponse struct {
	Results []normalizeResult `json:"results"`
}

type matchResponse struct {
	Tokens  []string       `json:"tokens"`
	Matches []phrase.Match `json:"matches"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:  "ok",
		Version: buildVersion(),
		Phrases: h.matcher.Len(),
	})
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if !h.decode(w, r, h.opts.maxTextBytes+bodySlack, &req) {
		return
	}
	if err := text.CheckLength(req.Text, h.opts.maxTextBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	meta := req.Meta == nil || *req.Meta
	tokens := tokenizer.Tokenize(req.Text, meta)
	if tokens == nil {
		tokens = []string{}
	}
	writeJSON(w, http.StatusOK, tokenizeResponse{Tokens: tokens})
}

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	limit := h.opts.maxTextBytes*max(h.opts.maxBatch, 1) + bodySlack
	if !h.decode(w, r, limit, &req) {
		return
	}

	batch := req.Texts != nil
	inputs := req.Texts
	if !batch {
		inputs = []string{req.Text}
	}
	if len(inputs) == 0 || (!batch && req.Text == "") {
		writeError(w, http.StatusBadRequest, "text or texts is required")
		return
	}
	if len(inputs) > h.opts.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d texts exceeds maximum of %d", len(inputs), h.opts.maxBatch))
		return
	}

	cleaned := make([]string, len(inputs))
	for i, in := range inputs {
		if err := text.CheckLength(in, h.opts.maxTextBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, indexed(batch, i, err))
			return
		}
		s, err := text.Normalize(in)
		if err != nil {
			writeError(w, http.StatusBadRequest, indexed(batch, i, err))
			return
		}
		cleaned[i] = s
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	release := h.acquire(ctx)
	if release == nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return
	}
	defer release()

	start := time.Now()
	results := make([]normalizeResult, 0, len(cleaned))
	replaced := 0
	for _, s := range cleaned {
		if ctx.Err() != nil {
			break
		}
		res := h.norm.Normalize(s)
		replaced += len(res.Replaced)
		results = append(results, normalizeResult{
			Text:     filter.Join(res.Tokens),
			Tokens:   nonNil(res.Tokens),
			Replaced: res.Replaced,
		})
	}
	durationMS := time.Since(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		h.log.WarnContext(r.Context(), "normalization timed out",
			slog.Int("texts", len(cleaned)),
			slog.Int("done", len(results)),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusGatewayTimeout, "normalization timed out")
		return
	}

	h.log.DebugContext(r.Context(), "normalization complete",
		slog.Int("texts", len(results)),
		slog.Int("replaced", replaced),
		slog.Int64("duration_ms", durationMS),
	)

	if batch {
		writeJSON(w, http.StatusOK, batchResponse{Results: results})
		return
	}
	writeJSON(w, http.StatusOK, results[0])
}

func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("text")
	if q == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if err := text.CheckLength(q, h.opts.maxTextBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	tokens := tokenizer.Split(q)
	matches := h.matcher.Matches(tokens)
	writeJSON(w, http.StatusOK, matchResponse{
		Tokens:  nonNil(tokens),
		Matches: nonNilMatches(matches),
	})
}

// decode reads a JSON body of at most limit bytes into v and validates it.
// It writes the error response and returns false on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, limit int, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(limit))
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", tooBig.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := validateRequest(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func indexed(batch bool, i int, err error) string {
	if !batch {
		return err.Error()
	}
	return fmt.Sprintf("texts[%d]: %v", i, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMatches(m []phrase.Match) []phrase.Match {
	if m == nil {
		return []phrase.Match{}
	}
	return m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
