// Package hist fills per-selection histograms of event variables and stores
// them in ROOT files.
package hist

import (
	"fmt"
	"sort"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/decibelcooper/hepflat/ntuple"
)

// Variable is a histogrammed quantity of an event.
type Variable struct {
	Name  string
	Bins  int
	Min   float64
	Max   float64
	Value func(r *ntuple.Row) float64
}

// Set holds the histograms of one run, keyed by "<bucket>/<variable>".
type Set struct {
	vars  []Variable
	hists map[string]*hbook.H1D
}

// NewSet returns an empty set for vars.
func NewSet(vars []Variable) *Set {
	return &Set{vars: vars, hists: make(map[string]*hbook.H1D)}
}

// Fill adds r with weight w to every variable histogram under key.
func (s *Set) Fill(key string, r *ntuple.Row, w float64) {
	for _, v := range s.vars {
		name := key + "/" + v.Name
		h, ok := s.hists[name]
		if !ok {
			h = hbook.NewH1D(v.Bins, v.Min, v.Max)
			h.Annotation()["name"] = name
			s.hists[name] = h
		}
		h.Fill(v.Value(r), w)
	}
}

// Get returns the histogram at name, or nil.
func (s *Set) Get(name string) *hbook.H1D {
	return s.hists[name]
}

// Names returns the histogram names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.hists))
	for n := range s.hists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of histograms.
func (s *Set) Len() int {
	return len(s.hists)
}

// Write stores every histogram of s in a new ROOT file at path, using the
// "/"-separated names as directories.
func Write(path string, s *Set) error {
	f, err := groot.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", path, err)
	}

	dir := riofs.Dir(f)
	for _, name := range s.Names() {
		if err := dir.Put(name, rhist.NewH1DFrom(s.hists[name])); err != nil {
			f.Close()
			return fmt.Errorf("could not write histogram %q: %w", name, err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %q: %w", path, err)
	}
	return nil
}

// Read loads the histogram stored under name in the ROOT file at path.
func Read(path, name string) (*hbook.H1D, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	defer f.Close()

	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		return nil, fmt.Errorf("could not find %q in %q: %w", name, path, err)
	}
	h1, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("object %q in %q is not a 1D histogram", name, path)
	}
	return rootcnv.H1D(h1), nil
}
