package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/c360/graphbatch/errors"
)

// SplitIndex maps split names ("train", "valid", "test") to ordered sample
// indices. The file is read on first use.
type SplitIndex struct {
	path string

	once   sync.Once
	splits map[string][]int
	err    error
}

// NewSplitIndex returns a split index backed by path. A .yaml or .yml
// extension selects YAML, anything else JSON.
func NewSplitIndex(path string) *SplitIndex {
	return &SplitIndex{path: path}
}

// SplitIndexFrom returns an index over an in-memory mapping.
func SplitIndexFrom(splits map[string][]int) *SplitIndex {
	s := &SplitIndex{splits: make(map[string][]int, len(splits))}
	for name, idx := range splits {
		s.splits[name] = slices.Clone(idx)
	}
	s.once.Do(func() {})
	return s
}

func (s *SplitIndex) load() error {
	s.once.Do(func() {
		data, err := os.ReadFile(s.path)
		if err != nil {
			s.err = errors.WrapFatal(err, "dataset", "SplitIndex", "read "+s.path)
			return
		}
		splits := map[string][]int{}
		switch strings.ToLower(filepath.Ext(s.path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &splits)
		default:
			err = json.Unmarshal(data, &splits)
		}
		if err != nil {
			s.err = errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "dataset", "SplitIndex", "decode "+s.path)
			return
		}
		s.splits = splits
	})
	return s.err
}

// Get returns a copy of the indices of the named split.
func (s *SplitIndex) Get(name string) ([]int, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	idx, ok := s.splits[name]
	if !ok {
		return nil, errors.Invalidf(errors.ErrUnknownSplit, "dataset", "SplitIndex.Get", "split %q", name)
	}
	return slices.Clone(idx), nil
}

// Names returns the split names in sorted order.
func (s *SplitIndex) Names() ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.splits))
	for name := range s.splits {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// validate checks every index lies in [0, n).
func (s *SplitIndex) validate(n int) error {
	if err := s.load(); err != nil {
		return err
	}
	for name, idx := range s.splits {
		for _, i := range idx {
			if i < 0 || i >= n {
				return errors.Invalidf(errors.ErrIndexOutOfRange, "dataset", "SplitIndex", "split %q: index %d not in [0, %d)", name, i, n)
			}
		}
	}
	return nil
}
