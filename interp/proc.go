package interp

import (
	"errors"

	"github.com/fumola-dev/fumola/vm"
	"github.com/rs/zerolog/log"
)

// ProcView is the process table as of the start of a round. Waiting on a
// process consults it, so a process halting this round is seen next round.
type ProcView map[vm.Sym]*Proc

// Spawned is a process created during a round, merged after it.
type Spawned struct {
	Name vm.Sym
	Proc *Proc
}

// StepProc advances p by at most one lifecycle transition. It reports
// whether p changed and any processes p spawned.
func StepProc(procs ProcView, store *Store, p *Proc) (bool, []Spawned) {
	switch p.Status {
	case Errored, Halted:
		return false, nil
	case Pending:
		p.Machine = NewMachine(NewEnv(), p.Body)
		p.Body = nil
		p.Status = Runnable
		log.Trace().Msg("Step: process started")
		return true, nil
	case WaitingPtr:
		if !store.Has(p.WaitOn) {
			return false, nil
		}
		log.Trace().Str("sym", p.WaitOn.String()).Msg("Step: pointer available, resuming")
		p.Status = Runnable
		p.WaitOn = nil
		return true, nil
	case WaitingHalt:
		target, ok := procs[p.WaitOn]
		if !ok {
			p.Status = Errored
			p.Err = &Error{Kind: ErrInvalidProc, Sym: p.WaitOn}
			return true, nil
		}
		if target.Status != Halted {
			return false, nil
		}
		log.Trace().Str("proc", p.WaitOn.String()).Msg("Step: linked process halted, resuming")
		p.Machine.Cont = vm.Returned{Value: target.RetVal}
		p.Machine.Trace = append(p.Machine.Trace, TraceLink{Target: vm.ProcHandle{Sym: p.WaitOn}, Result: target.RetVal})
		p.Status = Runnable
		p.WaitOn = nil
		return true, nil
	}
	return stepRunning(procs, store, p)
}

func stepRunning(procs ProcView, store *Store, p *Proc) (bool, []Spawned) {
	sig, err := StepMachine(store, p.Machine)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = ErrImpossible
		}
		if e.IsInternal() {
			log.Error().Str("err", e.Error()).Str("machine", p.Machine.String()).Msg("internal machine error")
		}
		p.Status = Errored
		p.Err = e
		return true, nil
	}
	if sig == nil {
		return true, nil
	}
	switch sig.Kind {
	case SignalHalt:
		p.Status = Halted
		p.Trace = p.Machine.Trace
		p.RetVal = sig.Value
		p.Machine = nil
	case SignalWaitPtr:
		p.Status = WaitingPtr
		p.WaitOn = sig.Sym
	case SignalWaitHalt:
		p.Status = WaitingHalt
		p.WaitOn = sig.Sym
	case SignalSpawn:
		if _, taken := procs[sig.Sym]; taken {
			p.Status = Errored
			p.Err = duplicate(sig.Sym)
			return true, nil
		}
		child := &Proc{Status: Runnable, Machine: NewMachine(sig.Env, sig.Body)}
		return true, []Spawned{{Name: sig.Sym, Proc: child}}
	}
	return true, nil
}
