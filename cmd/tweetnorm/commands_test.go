package main

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/phrase"
	"github.com/example/go-tweetnorm/internal/server"
)

func TestNormalizeCmd_Args(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "",
		"--phrases-file", phraseFile(t),
		"normalize", "RT @bob: Loving New York!! http://t.co/xyz :)")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := "<$RT$> <$@$> loving <$location$> <$link$> <$emote:smile$>\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestNormalizeCmd_StdinShowReplaced(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "Snow in Boston\nnothing here\n",
		"--phrases-file", phraseFile(t),
		"normalize", "--show-replaced")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out)
	}
	if lines[0] != "snow <$location$>\tboston" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if strings.Contains(lines[1], "\t") {
		t.Errorf("line 1 has no replacements but got %q", lines[1])
	}
}

func TestNormalizeCmd_JSON(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "",
		"--phrases-file", phraseFile(t),
		"normalize", "--json", "Snow in Boston")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	var got struct {
		Tokens   []string `json:"tokens"`
		Replaced []string `json:"replaced"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if strings.Join(got.Tokens, " ") != "snow <$location$>" {
		t.Errorf("tokens = %q", got.Tokens)
	}
	if len(got.Replaced) != 1 || got.Replaced[0] != "boston" {
		t.Errorf("replaced = %q", got.Replaced)
	}
}

func TestNormalizeCmd_MissingPhraseFileStillRuns(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "", "--phrases-file", "does-not-exist.txt", "normalize", "Snow in Boston")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out != "snow boston\n" {
		t.Errorf("output = %q, want phrases left alone", out)
	}
}

func TestTokenizeCmd(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"meta", []string{"tokenize", "RT @bob: Hi"}, "<$RT$> <$@$> hi\n"},
		{"no meta", []string{"tokenize", "--meta=false", "RT @bob: Hi"}, "rt bob hi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, "", tt.args...)
			if err != nil {
				t.Fatalf("tokenize: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestPhrasesMatchCmd(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "",
		"--phrases-file", phraseFile(t),
		"phrases", "match", "I", "love", "New", "York")
	if err != nil {
		t.Fatalf("phrases match: %v", err)
	}
	if out != "2\t2\tnew york\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPhrasesMatchCmd_NonOverlapping(t *testing.T) {
	t.Chdir(t.TempDir())

	vocab := writeFile(t, "locations.txt", "new york city\nyork\n")
	out, _, err := runCLI(t, "",
		"--phrases-file", vocab,
		"phrases", "match", "new york city or york")
	if err != nil {
		t.Fatalf("phrases match: %v", err)
	}

	want := "0\t3\tnew york city\n4\t1\tyork\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestPhrasesDumpCmd(t *testing.T) {
	t.Chdir(t.TempDir())

	out, stderr, err := runCLI(t, "",
		"--phrases-file", phraseFile(t),
		"phrases", "dump")
	if err != nil {
		t.Fatalf("phrases dump: %v", err)
	}
	for _, tok := range []string{"new", "york", "boston"} {
		if !strings.Contains(out, tok) {
			t.Errorf("dump missing %q: %q", tok, out)
		}
	}
	if !strings.Contains(stderr, "2 phrases") {
		t.Errorf("stderr = %q, want phrase count", stderr)
	}
}

func TestBenchCmd_JSON(t *testing.T) {
	t.Chdir(t.TempDir())

	corpus := writeFile(t, "tweets.txt", "Snow in Boston\nI love New York\n")
	out, _, err := runCLI(t, "",
		"--phrases-file", phraseFile(t),
		"bench", "--input", corpus, "--runs", "2", "--format", "json")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	var report struct {
		Runs []struct {
			Lines    int `json:"lines"`
			Replaced int `json:"replaced"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(report.Runs))
	}
	if report.Runs[0].Lines != 2 || report.Runs[0].Replaced != 2 {
		t.Errorf("run 0 = %+v", report.Runs[0])
	}
}

func TestBenchCmd_Validation(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"bench"}},
		{"zero runs", []string{"bench", "--input", "x.txt", "--runs", "0"}},
		{"bad format", []string{"bench", "--input", "x.txt", "--format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, "", tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDoctorCmd(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "", "--phrases-file", phraseFile(t), "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if !strings.Contains(out, "doctor checks passed") {
		t.Errorf("output = %q", out)
	}
}

func TestDoctorCmd_MissingPhraseFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, stderr, err := runCLI(t, "", "--phrases-file", "missing.txt", "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	if !strings.Contains(stderr, "FAIL: phrase file") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestHealthCmd_NoServer(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, _, err := runCLI(t, "", "health", "--addr", "127.0.0.1:1"); err == nil {
		t.Error("expected health check to fail without a server")
	}
}

func TestHealthCmd_ReportsPhrases(t *testing.T) {
	t.Chdir(t.TempDir())

	trie := phrase.Build([]string{"new york", "boston"})
	srv := httptest.NewServer(server.NewHandler(filter.NewTweetFilter(trie), trie,
		server.WithLogger(slog.New(slog.DiscardHandler))))
	defer srv.Close()

	out, stderr, err := runCLI(t, "", "health", "--addr", strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.HasPrefix(out, "ok: 2 phrases (version ") {
		t.Errorf("output = %q", out)
	}
	if stderr != "" {
		t.Errorf("unexpected warning: %q", stderr)
	}
}

func TestHealthCmd_WarnsOnEmptyVocabulary(t *testing.T) {
	t.Chdir(t.TempDir())

	srv := httptest.NewServer(server.NewHandler(filter.NewTweetFilter(nil), nil,
		server.WithLogger(slog.New(slog.DiscardHandler))))
	defer srv.Close()

	out, stderr, err := runCLI(t, "", "health", "--addr", strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.HasPrefix(out, "ok: 0 phrases") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(stderr, "no phrases loaded") {
		t.Errorf("stderr = %q, want warning", stderr)
	}
}
