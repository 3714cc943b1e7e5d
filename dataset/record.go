package dataset

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/c360/graphbatch/errors"
)

// Record is one raw row of the source CSV.
type Record struct {
	Index  int
	Header []string
	Fields []string
}

// Field returns the value of the named column.
func (r Record) Field(name string) (string, bool) {
	for i, h := range r.Header {
		if h == name && i < len(r.Fields) {
			return r.Fields[i], true
		}
	}
	return "", false
}

// Float returns the named column parsed as a float. Missing or unparsable
// values are malformed.
func (r Record) Float(name string) (float64, error) {
	s, ok := r.Field(name)
	if !ok {
		return 0, errors.Invalidf(errors.ErrMalformedRecord, "dataset", "Record.Float", "row %d: missing column %q", r.Index, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Invalidf(errors.ErrMalformedRecord, "dataset", "Record.Float", "row %d: column %q: %v", r.Index, name, err)
	}
	return v, nil
}

// source is the parsed raw CSV, read-only after loading.
type source struct {
	header []string
	rows   [][]string
}

func (s *source) Len() int { return len(s.rows) }

func (s *source) record(i int) Record {
	return Record{Index: i, Header: s.header, Fields: s.rows[i]}
}

func loadSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapFatal(fmt.Errorf("%w: %s", errors.ErrRawSourceUnavailable, path), "dataset", "Open", "open raw source")
		}
		return nil, errors.WrapFatal(err, "dataset", "Open", "open raw source")
	}
	defer f.Close()
	return readSource(f)
}

func readSource(r io.Reader) (*source, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return &source{}, nil
	}
	if err != nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: header: %v", errors.ErrParsingFailed, err), "dataset", "Open", "read raw source")
	}

	s := &source{header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapFatal(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "dataset", "Open", "read raw source")
		}
		s.rows = append(s.rows, row)
	}
	return s, nil
}
