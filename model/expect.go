package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fumola-dev/fumola/interp"
)

// Check compares a finished run against the expectation and returns one
// message per mismatch.
func (x Expectation) Check(res *RunResult) []string {
	var failures []string
	root := res.System.Root()
	if root == nil {
		return []string{"no root process"}
	}

	if x.Status != "" {
		want, ok := interp.ParseStatus(x.Status)
		switch {
		case !ok:
			failures = append(failures, fmt.Sprintf("unknown expected status %q", x.Status))
		case want != root.Status:
			failures = append(failures, fmt.Sprintf("root status: want %s, got %s", want, root.Status))
		}
	}

	if x.Value != "" {
		got := "<none>"
		if root.RetVal != nil {
			got = root.RetVal.String()
		}
		if got != x.Value {
			failures = append(failures, fmt.Sprintf("root value: want %s, got %s", x.Value, got))
		}
	}

	if x.Error != "" {
		got := "<none>"
		if root.Err != nil {
			got = root.Err.Error()
		}
		if got != x.Error {
			failures = append(failures, fmt.Sprintf("root error: want %s, got %s", x.Error, got))
		}
	}

	if x.Store != nil {
		got := storeEntries(res.System)
		want := slices.Clone(x.Store)
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(want, got) {
			failures = append(failures, fmt.Sprintf("store: want [%s], got [%s]",
				strings.Join(x.Store, "; "), strings.Join(got, "; ")))
		}
	}

	if x.Cycle != res.Cycle {
		if res.Cycle {
			failures = append(failures, fmt.Sprintf("system repeated round %d at round %d", res.CycleOf, res.Rounds))
		} else {
			failures = append(failures, "expected the system to repeat a state")
		}
	}

	if x.Status == "" && x.Error == "" && root.Status == interp.Errored {
		failures = append(failures, "root errored: "+root.Err.Error())
	}
	return failures
}

func storeEntries(s *interp.System) []string {
	keys := s.Store.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.Store.Entry(k)
	}
	return out
}
