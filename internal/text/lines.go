package text

import (
	"bufio"
	"fmt"
	"io"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// SplitLines reads r one tweet per line. Lines that normalize to nothing are
// skipped.
func SplitLines(r io.Reader) ([]string, error) {
	var out []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line, err := Normalize(sc.Text())
		if err != nil {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}

	return out, nil
}
