package ntuple

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// SumWeightsBranch is the branch of the metadata tree holding the sum of
// generator weights of the file.
const SumWeightsBranch = "summedWeights"

// TreeSource reads rows from the same tree across a set of ROOT files.
type TreeSource struct {
	layout   *Layout
	log      logrus.FieldLogger
	files    []*riofs.File
	names    []string
	tree     rtree.Tree
	beg, end int64
}

// OpenTrees opens every file matching patterns and chains the trees named
// treeName. A pattern list matching no file is not an error: the error is
// logged and the source yields no rows.
func OpenTrees(layout *Layout, treeName string, patterns []string, log logrus.FieldLogger) (*TreeSource, error) {
	src := &TreeSource{layout: layout, log: log}

	for _, pat := range patterns {
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pat, err)
		}
		src.names = append(src.names, matches...)
	}
	sort.Strings(src.names)

	if len(src.names) == 0 {
		log.WithField("patterns", patterns).Error("no input files found")
		return src, nil
	}

	var trees []rtree.Tree
	for _, name := range src.names {
		f, err := groot.Open(name)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("could not open %q: %w", name, err)
		}
		src.files = append(src.files, f)

		obj, err := riofs.Dir(f).Get(treeName)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("could not find tree %q in %q: %w", treeName, name, err)
		}
		t, ok := obj.(rtree.Tree)
		if !ok {
			src.Close()
			return nil, fmt.Errorf("object %q in %q is not a tree", treeName, name)
		}
		trees = append(trees, t)
	}

	src.tree = rtree.Chain(trees...)
	src.end = src.tree.Entries()
	log.WithFields(logrus.Fields{"files": len(src.names), "entries": src.end}).Info("opened input trees")
	return src, nil
}

// Files returns the matched input file names.
func (s *TreeSource) Files() []string {
	return s.names
}

// Entries returns the number of entries in the selected range.
func (s *TreeSource) Entries() int64 {
	return s.end - s.beg
}

// SetShard restricts the source to the i-th of n contiguous entry ranges.
func (s *TreeSource) SetShard(i, n int) error {
	if n < 1 || i < 0 || i >= n {
		return fmt.Errorf("invalid shard %d/%d", i, n)
	}
	if s.tree == nil {
		return nil
	}
	total := s.tree.Entries()
	s.beg = total * int64(i) / int64(n)
	s.end = total * int64(i+1) / int64(n)
	return nil
}

func (s *TreeSource) Columns() []string {
	if s.tree == nil {
		return nil
	}
	var cols []string
	for _, rv := range rtree.NewReadVars(s.tree) {
		cols = append(cols, rv.Name)
	}
	return cols
}

func (s *TreeSource) Scan(fn func(r *Row) error) error {
	if s.tree == nil || s.end <= s.beg {
		return nil
	}

	var (
		rvars   []rtree.ReadVar
		assigns []func(r *Row)
	)
	for _, rv := range rtree.NewReadVars(s.tree) {
		f, ok := s.layout.fields[rv.Name]
		if !ok {
			continue
		}
		assign, err := bind(f, rv.Value)
		if err != nil {
			return fmt.Errorf("column %q: %w", rv.Name, err)
		}
		rvars = append(rvars, rv)
		assigns = append(assigns, assign)
	}
	if len(rvars) == 0 {
		return fmt.Errorf("%w: tree has none of the analysis columns", ErrMissingColumn)
	}

	r, err := rtree.NewReader(s.tree, rvars, rtree.WithRange(s.beg, s.end))
	if err != nil {
		return fmt.Errorf("could not create tree reader: %w", err)
	}
	defer r.Close()

	row := s.layout.NewRow()
	return r.Read(func(ctx rtree.RCtx) error {
		row.Entry = ctx.Entry
		for _, assign := range assigns {
			assign(row)
		}
		s.layout.Finish(row)
		return fn(row)
	})
}

// SumWeights adds up the generator weight sums stored in the metadata tree
// of every input file.
func (s *TreeSource) SumWeights(treeName string) (float64, error) {
	var sum float64
	for i, f := range s.files {
		obj, err := riofs.Dir(f).Get(treeName)
		if err != nil {
			return 0, fmt.Errorf("could not find tree %q in %q: %w", treeName, s.names[i], err)
		}
		t, ok := obj.(rtree.Tree)
		if !ok {
			return 0, fmt.Errorf("object %q in %q is not a tree", treeName, s.names[i])
		}

		var rvars []rtree.ReadVar
		for _, rv := range rtree.NewReadVars(t) {
			if rv.Name == SumWeightsBranch {
				rvars = append(rvars, rv)
			}
		}
		if len(rvars) == 0 {
			return 0, fmt.Errorf("%w: %s in %q", ErrMissingColumn, SumWeightsBranch, s.names[i])
		}
		value, ok := numeric(rvars[0].Value)
		if !ok {
			return 0, fmt.Errorf("branch %s in %q is not numeric", SumWeightsBranch, s.names[i])
		}

		r, err := rtree.NewReader(t, rvars)
		if err != nil {
			return 0, fmt.Errorf("could not read %q: %w", s.names[i], err)
		}
		err = r.Read(func(rtree.RCtx) error {
			sum += value()
			return nil
		})
		r.Close()
		if err != nil {
			return 0, fmt.Errorf("could not read %q: %w", s.names[i], err)
		}
	}
	return sum, nil
}

// Close closes all opened files.
func (s *TreeSource) Close() error {
	var first error
	for _, f := range s.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.files = nil
	return first
}

func bind(f field, ptr interface{}) (func(r *Row), error) {
	if f.str != nil {
		p, ok := ptr.(*string)
		if !ok {
			return nil, fmt.Errorf("expected string branch, got %T", ptr)
		}
		return func(r *Row) { f.str(r, *p) }, nil
	}
	value, ok := numeric(ptr)
	if !ok {
		return nil, fmt.Errorf("expected numeric branch, got %T", ptr)
	}
	return func(r *Row) { f.num(r, value()) }, nil
}

func numeric(ptr interface{}) (func() float64, bool) {
	switch p := ptr.(type) {
	case *float64:
		return func() float64 { return *p }, true
	case *float32:
		return func() float64 { return float64(*p) }, true
	case *int64:
		return func() float64 { return float64(*p) }, true
	case *int32:
		return func() float64 { return float64(*p) }, true
	case *int16:
		return func() float64 { return float64(*p) }, true
	case *int8:
		return func() float64 { return float64(*p) }, true
	case *uint64:
		return func() float64 { return float64(*p) }, true
	case *uint32:
		return func() float64 { return float64(*p) }, true
	case *uint16:
		return func() float64 { return float64(*p) }, true
	case *uint8:
		return func() float64 { return float64(*p) }, true
	case *bool:
		return func() float64 {
			if *p {
				return 1
			}
			return 0
		}, true
	}
	return nil, false
}
