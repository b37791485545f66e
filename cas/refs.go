package cas

import (
	"io"

	"github.com/fumola-dev/fumola/vm"
	"github.com/shamaton/msgpack/v2"
)

// EntryRef is one store entry of a system.
type EntryRef struct {
	Sym   vm.Node
	Value vm.Node
}

func (e *EntryRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, e)
}

func (e *EntryRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, e)
}

// ProcRef is one named process of a system.
type ProcRef struct {
	Name vm.Node
	Proc vm.Node
}

func (p *ProcRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, p)
}

func (p *ProcRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, p)
}

// SystemRef is the internal CAS representation of interp.System. Entries
// and processes are stored separately and listed here in symbol order, so a
// process that did not change between rounds is stored once.
type SystemRef struct {
	EntryHashes []Hash
	ProcHashes  []Hash
}

func (s *SystemRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *SystemRef) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}
