package interp

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/fumola-dev/fumola/vm"
	"github.com/rs/zerolog/log"
)

// Store is the shared associative memory of a system.
type Store struct {
	entries map[vm.Sym]vm.Val
}

func NewStore() *Store {
	return &Store{entries: make(map[vm.Sym]vm.Val)}
}

func (s *Store) Get(sym vm.Sym) (vm.Val, bool) {
	v, ok := s.entries[sym]
	return v, ok
}

func (s *Store) Has(sym vm.Sym) bool {
	_, ok := s.entries[sym]
	return ok
}

// Put writes v under sym, replacing any previous entry.
func (s *Store) Put(sym vm.Sym, v vm.Val) {
	s.entries[sym] = v
}

// Reserve records the handle of a freshly spawned process under its name.
// It reports whether an entry already existed.
func (s *Store) Reserve(sym vm.Sym) bool {
	_, prior := s.entries[sym]
	s.entries[sym] = vm.ProcHandle{Sym: sym}
	return prior
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Keys returns the populated symbols in vm.CompareSym order.
func (s *Store) Keys() []vm.Sym {
	return sortedSyms(maps.Keys(s.entries))
}

func (s *Store) Clone() *Store {
	return &Store{entries: maps.Clone(s.entries)}
}

func sortedSyms(seq iter.Seq[vm.Sym]) []vm.Sym {
	return slices.SortedFunc(seq, vm.CompareSym)
}

type RoundResult int

const (
	Progress RoundResult = iota
	NoProgress
	NoProcs
)

func (r RoundResult) String() string {
	switch r {
	case Progress:
		return "Progress"
	case NoProgress:
		return "NoProgress"
	case NoProcs:
		return "NoProcs"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// System is a store and the population of processes sharing it.
type System struct {
	Store *Store
	Procs map[vm.Sym]*Proc
}

// NewSystem normalizes e and installs it as the anonymous root process.
func NewSystem(names vm.NameSupply, e vm.Exp) (*System, error) {
	norm, err := vm.Normalize(names, e)
	if err != nil {
		return nil, err
	}
	return &System{
		Store: NewStore(),
		Procs: map[vm.Sym]*Proc{vm.NoSym{}: NewProc(norm)},
	}, nil
}

// Root is the process the system was created with.
func (s *System) Root() *Proc {
	return s.Procs[vm.NoSym{}]
}

// Names returns the process names in vm.CompareSym order.
func (s *System) Names() []vm.Sym {
	return sortedSyms(maps.Keys(s.Procs))
}

func (s *System) Clone() *System {
	out := &System{
		Store: s.Store.Clone(),
		Procs: make(map[vm.Sym]*Proc, len(s.Procs)),
	}
	for k, p := range s.Procs {
		out.Procs[k] = p.Clone()
	}
	return out
}

// Step gives every process one attempted step, in name order. Processes
// spawned during the round have their names reserved in the store at once
// and join the table when the round ends.
func (s *System) Step() RoundResult {
	if len(s.Procs) == 0 {
		return NoProcs
	}
	view := ProcView(s.Procs)
	next := make(map[vm.Sym]*Proc, len(s.Procs))
	var staged []Spawned
	stepped := false
	for _, name := range s.Names() {
		p := s.Procs[name].Clone()
		ok, spawns := StepProc(view, s.Store, p)
		if ok {
			stepped = true
			log.Trace().Str("proc", name.String()).Str("status", p.Status.String()).Msg("Step: process stepped")
		}
		next[name] = p
		for _, sp := range spawns {
			if s.Store.Reserve(sp.Name) {
				log.Error().Str("proc", sp.Name.String()).Msg("spawned process name already in store")
			}
			staged = append(staged, sp)
		}
	}
	for _, sp := range staged {
		if _, ok := next[sp.Name]; ok {
			log.Error().Str("proc", sp.Name.String()).Msg("spawned process name already in use")
			continue
		}
		next[sp.Name] = sp.Proc
	}
	s.Procs = next
	log.Debug().Bool("progress", stepped).Int("procs", len(next)).Int("spawned", len(staged)).Msg("round complete")
	if stepped {
		return Progress
	}
	return NoProgress
}

// RunFully steps rounds until no process can progress and returns the
// number of rounds that made progress.
func (s *System) RunFully() int {
	n, _ := s.RunRounds(0)
	return n
}

// RunRounds is RunFully bounded by limit progressing rounds; limit <= 0 means
// no bound. It also returns the result of the last round attempted.
func (s *System) RunRounds(limit int) (int, RoundResult) {
	n := 0
	for limit <= 0 || n < limit {
		r := s.Step()
		if r != Progress {
			return n, r
		}
		n++
	}
	return n, Progress
}
