package model

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/interp"
	"github.com/gookit/color"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// FormatResult formats a finished run for display
func FormatResult(r *RunResult) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	if r.Success {
		b.WriteString(color.Green.Sprint("RUN OK"))
	} else {
		b.WriteString(color.Red.Sprint("RUN FAILED"))
	}
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Program:  "))
	b.WriteString(color.Yellow.Sprintf("%s\n", filepath.Base(r.Name)))
	b.WriteString(color.Bold.Sprint("Run:      "))
	b.WriteString(fmt.Sprintf("%s\n", r.RunID))
	b.WriteString(color.Bold.Sprint("Rounds:   "))
	b.WriteString(fmt.Sprintf("%d\n", r.Rounds))
	b.WriteString(color.Bold.Sprint("Stopped:  "))
	b.WriteString(fmt.Sprintf("%s\n", stopReason(r)))
	b.WriteString(color.Bold.Sprint("Root:     "))
	b.WriteString(statusColor(r.Root).Sprintf("%s\n", r.Root))
	b.WriteString(color.Bold.Sprint("Hash:     "))
	b.WriteString(fmt.Sprintf("0x%x\n", r.Final))

	if len(r.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(color.Red.Sprint("Failures:"))
		b.WriteString("\n")
		for _, f := range r.Failures {
			b.WriteString(color.Red.Sprintf("  - %s\n", f))
		}
	}

	if r.System != nil {
		b.WriteString("\n")
		b.WriteString(color.Gray.Sprint(lightRule))
		b.WriteString("\n")
		b.WriteString(color.Cyan.Sprint("Final System:"))
		b.WriteString("\n")
		b.WriteString(color.Gray.Sprint(lightRule))
		b.WriteString("\n")
		b.WriteString(r.System.PrettyPrint())
	}
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	return b.String()
}

func stopReason(r *RunResult) string {
	switch {
	case r.Cycle:
		return fmt.Sprintf("repeated round %d", r.CycleOf)
	case r.Last == interp.Progress:
		return "round budget spent"
	case r.Last == interp.NoProcs:
		return "no processes"
	}
	return "no progress"
}

func statusColor(s interp.Status) color.Color {
	switch s {
	case interp.Halted:
		return color.Green
	case interp.Errored:
		return color.Red
	case interp.WaitingPtr, interp.WaitingHalt:
		return color.Yellow
	}
	return color.White
}

// FormatHistory writes the fingerprint of every round. With details, each
// round's system is recomposed from the CAS and printed under it.
func FormatHistory(w io.Writer, r *RunResult, c cas.CAS, details bool) {
	fmt.Fprintln(w, color.Cyan.Sprint("Round History:"))
	fmt.Fprintln(w, color.Gray.Sprint(lightRule))
	if len(r.History) == 0 {
		fmt.Fprintln(w, "  (no progressing rounds)")
		return
	}
	for _, round := range r.History {
		if !details || c == nil {
			fmt.Fprintf(w, "  %2d. %d processes → State 0x%x\n", round.Number, round.Procs, round.Hash)
			continue
		}
		sys, err := cas.Retrieve[*interp.System](c, round.Hash)
		if err != nil {
			fmt.Fprintf(w, "\n  Round %d: State 0x%x (unavailable)\n", round.Number, round.Hash)
			continue
		}
		fmt.Fprintf(w, "\n  Round %d:\n", round.Number)
		fmt.Fprintf(w, "  ├─ Hash: 0x%x\n", round.Hash)
		fmt.Fprintf(w, "  ├─ Processes: %d\n", round.Procs)
		fmt.Fprint(w, "  └─ System:\n")
		io.WriteString(&indentWriter{w: w, indent: "     ", atLineStart: true}, sys.PrettyPrint())
	}
}

// FormatSummary formats the outcome of checking many specs
func FormatSummary(outcomes []*Outcome) string {
	var b strings.Builder
	passed := 0
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Check summary ==="))
	b.WriteString("\n")
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			b.WriteString(color.Red.Sprint("ERROR "))
			b.WriteString(fmt.Sprintf("%s: %v\n", o.Path, o.Err))
		case o.Result.Success:
			passed++
			b.WriteString(color.Green.Sprint("ok    "))
			b.WriteString(fmt.Sprintf("%s (%d rounds)\n", o.Path, o.Result.Rounds))
		default:
			b.WriteString(color.Red.Sprint("FAIL  "))
			b.WriteString(fmt.Sprintf("%s\n", o.Path))
			for _, f := range o.Result.Failures {
				b.WriteString(fmt.Sprintf("        %s\n", f))
			}
		}
	}
	b.WriteString(color.Bold.Sprint("Passed: "))
	if passed == len(outcomes) {
		b.WriteString(color.Green.Sprintf("%d/%d\n", passed, len(outcomes)))
	} else {
		b.WriteString(color.Red.Sprintf("%d/%d\n", passed, len(outcomes)))
	}
	return b.String()
}

// indentWriter wraps an io.Writer to add indentation to each line
type indentWriter struct {
	w           io.Writer
	indent      string
	atLineStart bool
}

func (iw *indentWriter) Write(p []byte) (n int, err error) {
	totalWritten := 0
	for len(p) > 0 {
		if iw.atLineStart {
			if _, err := io.WriteString(iw.w, iw.indent); err != nil {
				return totalWritten, err
			}
			iw.atLineStart = false
		}

		idx := 0
		for idx < len(p) && p[idx] != '\n' {
			idx++
		}
		if idx < len(p) {
			idx++
			iw.atLineStart = true
		}

		written, err := iw.w.Write(p[:idx])
		totalWritten += written
		if err != nil {
			return totalWritten, err
		}
		p = p[idx:]
	}
	return totalWritten, nil
}
