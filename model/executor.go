package model

import (
	"errors"
	"fmt"
	"io"

	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNotInitialized = errors.New("executor not initialized")

// An Executor is the context and entrypoint for running a program
type Executor struct {
	Spec        *Spec
	Program     *vm.Program
	System      *interp.System
	CAS         cas.CAS
	RunID       uuid.UUID
	DebugWriter io.Writer
	ShowDetails bool
	Reporter    Reporter
}

// Round is one progressing round of a run, fingerprinted in the CAS.
type Round struct {
	Number int
	Hash   cas.Hash
	Procs  int
}

type RunResult struct {
	RunID    uuid.UUID
	Name     string
	Rounds   int
	Initial  cas.Hash
	Final    cas.Hash
	History  []Round
	Root     interp.Status
	Last     interp.RoundResult
	Cycle    bool // the system returned to an earlier fingerprint
	CycleOf  int  // the earlier round it matched
	System   *interp.System
	Failures []string
	Success  bool
}

// Initialize normalizes the program and installs it as the root process.
func (e *Executor) Initialize() error {
	if e.DebugWriter == nil {
		e.DebugWriter = io.Discard
	}
	if e.Reporter == nil {
		e.Reporter = &SilentReporter{}
	}
	sys, err := interp.NewSystem(e.Spec.names(), e.Program.Main)
	if err != nil {
		return fmt.Errorf("initializing %s: %w", e.Program.Name, err)
	}
	e.System = sys
	log.Debug().Str("run", e.RunID.String()).Str("program", e.Program.Name).Msg("system initialized")
	fmt.Fprintf(e.DebugWriter, "Initial system:\n%s\n", sys)
	return nil
}

// Run steps the system round by round until no process can progress, the
// round budget is spent, or the system repeats an earlier fingerprint.
func (e *Executor) Run() (*RunResult, error) {
	if e.System == nil {
		return nil, ErrNotInitialized
	}
	res := &RunResult{RunID: e.RunID, Name: e.Program.Name}
	h, _, err := e.fingerprint(0)
	if err != nil {
		return nil, err
	}
	res.Initial = h
	res.Final = h

	limit := e.Spec.Spec.MaxRounds
	for limit <= 0 || res.Rounds < limit {
		r := e.System.Step()
		res.Last = r
		if r != interp.Progress {
			break
		}
		res.Rounds++
		fmt.Fprintf(e.DebugWriter, "Round %d:\n%s\n", res.Rounds, e.System)

		h, seen, err := e.fingerprint(res.Rounds)
		if err != nil {
			return nil, err
		}
		res.Final = h
		res.History = append(res.History, Round{Number: res.Rounds, Hash: h, Procs: len(e.System.Procs)})
		e.Reporter.Printf("round %d: %d processes, state 0x%x\n", res.Rounds, len(e.System.Procs), h)
		if len(seen) > 0 {
			res.Cycle = true
			res.CycleOf = seen[0]
			log.Debug().Int("round", res.Rounds).Int("matches", seen[0]).Msg("system repeated an earlier state")
			break
		}
	}

	root := e.System.Root()
	if root != nil {
		res.Root = root.Status
	}
	res.System = e.System
	res.Failures = e.Spec.Expect.Check(res)
	res.Success = len(res.Failures) == 0
	log.Debug().
		Str("run", e.RunID.String()).
		Int("rounds", res.Rounds).
		Str("root", res.Root.String()).
		Bool("success", res.Success).
		Msg("run complete")
	return res, nil
}

// fingerprint stores the current system in the CAS and records the visit.
// It also returns the rounds at which the same system was seen before.
func (e *Executor) fingerprint(round int) (cas.Hash, []int, error) {
	h, err := e.CAS.Put(e.System)
	if err != nil {
		return 0, nil, fmt.Errorf("storing round %d: %w", round, err)
	}
	seen := e.CAS.Visits(h)
	e.CAS.RecordVisit(h, round)
	return h, seen, nil
}
