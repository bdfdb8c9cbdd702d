//go:build stave

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs lint, test and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the tweetnorm binary with version information.
func Build() error {
	st.Deps(Init)

	rebuild, err := target.Glob("bin/tweetnorm", "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Println("tweetnorm is up to date")
		}
		return nil
	}

	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", "bin/tweetnorm", "./cmd/tweetnorm")
}

func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	return fmt.Sprintf("-X main.version=%s -X main.buildDate=%s",
		strings.TrimSpace(version), time.Now().Format(time.RFC3339))
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort skips the Postgres integration tests.
func TestShort() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-short", "-race", "./...")
}

// TestIntegration runs the Postgres-backed tests. TWEETNORM_TEST_POSTGRES_DSN
// must point at a scratch database.
func TestIntegration() error {
	if os.Getenv("TWEETNORM_TEST_POSTGRES_DSN") == "" {
		return fmt.Errorf("TWEETNORM_TEST_POSTGRES_DSN is not set")
	}
	return sh.RunV("go", "test", "-race", "-run", "Postgres", "./internal/phrase/...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Bench normalizes the sample corpus a few times and prints timings.
func Bench() error {
	st.Deps(Build)
	return sh.RunV("./bin/tweetnorm", "bench", "--input", "data/sample_tweets.txt", "--runs", "5")
}

// Clean removes build artifacts.
func Clean() error {
	for _, a := range []string{"bin/", "coverage.out", "coverage.html"} {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Coverage generates an HTML coverage report.
func Coverage() error {
	st.Deps(Init)
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}
