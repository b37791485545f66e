package cas

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fumola-dev/fumola/interp"
)

type CAS interface {
	Put(item Hashable) (Hash, error)
	Has(hash Hash) bool
	getReader(hash Hash) (bool, io.Reader, error)

	// Visit tracking for repeated-state detection
	RecordVisit(hash Hash, round int)
	Visits(hash Hash) []int
}

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

type Hashable interface {
	Serde
}

type directStore interface {
	getValue(h Hash) (bool, []byte, error)
}

type Hash uint64

func Retrieve[T Hashable](c CAS, hash Hash) (T, error) {
	var t T
	v, ok := c.(directStore)
	if !ok {
		return t, errors.New("CAS does not support direct retrieval")
	}

	has, data, err := v.getValue(hash)
	if err != nil {
		return t, err
	}
	if !has {
		return t, fmt.Errorf("hash not found in CAS: %d", hash)
	}

	// Systems are stored decomposed and must be put back together
	var zeroT T
	if reflect.TypeOf(zeroT) == reflect.TypeOf((*interp.System)(nil)) {
		sys, err := recomposeSystem(v, hash)
		if err != nil {
			return t, fmt.Errorf("recomposing System: %w", err)
		}
		return any(sys).(T), nil
	}

	instance, err := decodeEntry(data)
	if err != nil {
		return t, err
	}
	result, ok := instance.(T)
	if !ok {
		return t, fmt.Errorf("type mismatch: expected %T, got %T", t, instance)
	}
	return result, nil
}

// decodeEntry unwraps a TypedEntry and deserializes the registered type it
// names.
func decodeEntry(data []byte) (Hashable, error) {
	typedEntry := &TypedEntry{}
	if err := typedEntry.Deserialize(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserializing TypedEntry: %w", err)
	}
	instance, err := createInstance(typedEntry.TypeTag)
	if err != nil {
		return nil, fmt.Errorf("creating instance: %w", err)
	}
	if err := instance.Deserialize(bytes.NewReader(typedEntry.Data)); err != nil {
		return nil, fmt.Errorf("deserializing data: %w", err)
	}
	return instance, nil
}
