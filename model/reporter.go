package model

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// Reporter receives per-round progress while a run steps
type Reporter interface {
	Printf(format string, args ...interface{})
}

// SilentReporter does not output any progress
type SilentReporter struct{}

func (r *SilentReporter) Printf(format string, args ...interface{}) {}

// ColorReporter writes dimmed progress lines to a writer (typically stderr)
type ColorReporter struct {
	Writer io.Writer
}

func (r *ColorReporter) Printf(format string, args ...interface{}) {
	fmt.Fprint(r.Writer, color.Gray.Sprintf(format, args...))
}

