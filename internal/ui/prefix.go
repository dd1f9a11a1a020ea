package ui

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// projectColors is a palette of distinct bold colors for telling projects apart.
var projectColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// projectColorIndex hashes a name to a palette index.
func projectColorIndex(name string) int {
	var h uint32
	for _, c := range name {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(projectColors)))
}

// Prefix returns a colored [name] prefix string.
// Each name gets a stable color from the palette.
func Prefix(name string) string {
	c := projectColors[projectColorIndex(name)]
	return Dim("[") + c(name) + Dim("]")
}

// PrefixWriter writes complete lines to dest, each preceded by a colored
// [name] tag. Writers sharing mu never interleave within one Write call.
type PrefixWriter struct {
	prefix string
	dest   io.Writer
	mu     *sync.Mutex
	buf    []byte
}

// NewPrefixWriter creates a PrefixWriter for name.
func NewPrefixWriter(name string, dest io.Writer, mu *sync.Mutex) *PrefixWriter {
	return &PrefixWriter{
		prefix: Prefix(name) + " ",
		dest:   dest,
		mu:     mu,
	}
}

func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.buf = append(pw.buf, p...)
	for {
		idx := bytes.IndexByte(pw.buf, '\n')
		if idx == -1 {
			break
		}
		line := pw.buf[:idx]
		pw.buf = pw.buf[idx+1:]
		if _, err := fmt.Fprintf(pw.dest, "%s%s\n", pw.prefix, line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes any trailing partial line.
func (pw *PrefixWriter) Flush() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if len(pw.buf) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(pw.dest, "%s%s\n", pw.prefix, pw.buf)
	pw.buf = nil
	return err
}
