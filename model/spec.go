package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/vm"
	"github.com/google/uuid"
)

type Spec struct {
	Spec   SpecDetails `toml:""`
	Expect Expectation `toml:",omitempty"`
}

type SpecDetails struct {
	File        string `toml:",omitempty"`
	Entrypoint  string `toml:",omitempty"`
	MaxRounds   int    `toml:"max_rounds,omitempty"`
	FreshPrefix string `toml:"fresh_prefix,omitempty"`
}

// Expectation describes the outcome a run must reach. Empty fields are not
// checked.
type Expectation struct {
	Status string   `toml:",omitempty"`
	Value  string   `toml:",omitempty"`
	Store  []string `toml:",omitempty"`
	Error  string   `toml:",omitempty"`
	Cycle  bool     `toml:",omitempty"`
}

func parseSpec(f io.Reader) (*Spec, error) {
	var out Spec
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadSpecFromFile reads a TOML spec. A path to a .star program is accepted
// as a spec with default settings and no expectations.
func LoadSpecFromFile(path string) (*Spec, error) {
	if filepath.Ext(path) == ".star" {
		return &Spec{Spec: SpecDetails{File: filepath.Clean(path)}}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	s, err := parseSpec(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Spec.File == "" {
		parts := strings.Split(fi.Name(), ".")
		parts = parts[:len(parts)-1]
		parts = append(parts, "star")
		s.Spec.File = strings.Join(parts, ".")
	}
	filedir := filepath.Dir(path)
	s.Spec.File = filepath.Clean(filepath.Join(filedir, s.Spec.File))
	return s, nil
}

func (s *Spec) names() vm.NameSupply {
	names := vm.NewFreshNames()
	if s.Spec.FreshPrefix != "" {
		names.Base = s.Spec.FreshPrefix
	}
	return names
}

func (s *Spec) BuildExecutor(c cas.CAS) (*Executor, error) {
	p, err := vm.CompilePathEntry(s.Spec.File, s.Spec.Entrypoint)
	if err != nil {
		return nil, err
	}
	exec := &Executor{
		Program:     p,
		Spec:        s,
		CAS:         c,
		RunID:       uuid.New(),
		DebugWriter: io.Discard,
		Reporter:    &SilentReporter{},
	}
	return exec, nil
}
