package config

import (
	"fmt"
	"strings"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

// NormalizeSource canonicalizes a phrase source name. Empty means file.
func NormalizeSource(raw string) (string, error) {
	source := strings.ToLower(strings.TrimSpace(raw))
	if source == "" {
		source = SourceFile
	}
	switch source {
	case SourceFile, SourcePostgres, SourceNone:
		return source, nil
	case "pg", "postgresql":
		return SourcePostgres, nil
	case "off", "disabled":
		return SourceNone, nil
	default:
		return "", fmt.Errorf(
			"invalid phrase source %q (expected %s|%s|%s)",
			raw,
			SourceFile,
			SourcePostgres,
			SourceNone,
		)
	}
}
