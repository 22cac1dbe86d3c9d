package storage

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/fsutil"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/table"
)

var log = logging.Component("storage")

// AppendResult describes one Append call.
type AppendResult struct {
	Table        string
	RowsBefore   int
	RowsAppended int
	ColumnsAdded []string
}

// Store reads and writes tables under one directory.
type Store struct {
	dir  string
	perm os.FileMode
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir, perm: config.DefaultFilePerm}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path of a table.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+config.TableFileExt)
}

// Load reads a table. A missing or empty file yields an empty table.
func (s *Store) Load(name string) (*table.Table, error) {
	path := s.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table.New(), nil
		}
		return nil, errors.NewPersistence(name, "read", path, err)
	}

	t, err := table.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewPersistence(name, "decode", path, err)
	}
	return t, nil
}

// Append merges records into the named table and rewrites its file.
//
// An empty record set leaves the file untouched.
func (s *Store) Append(name string, records []table.Record) (AppendResult, error) {
	res := AppendResult{Table: name}
	if len(records) == 0 {
		return res, nil
	}

	t, err := s.Load(name)
	if err != nil {
		return res, err
	}
	res.RowsBefore = t.Len()

	res.ColumnsAdded = t.AppendRecords(records)
	res.RowsAppended = len(records)

	// A brand-new table reports the record columns as added, which is noise.
	if res.RowsBefore == 0 && len(t.Columns) == len(res.ColumnsAdded) {
		res.ColumnsAdded = nil
	}

	if err := s.write(name, t); err != nil {
		return res, err
	}

	log.Debug("table written",
		"table", name,
		"rows_before", res.RowsBefore,
		"rows_appended", res.RowsAppended,
		"columns_added", res.ColumnsAdded)

	return res, nil
}

func (s *Store) write(name string, t *table.Table) error {
	path := s.Path(name)
	err := fsutil.AtomicWrite(path, s.perm, func(w io.Writer) error {
		return table.Encode(w, t)
	})
	if err != nil {
		return errors.NewPersistence(name, "write", path, err)
	}
	return nil
}

// Tables returns the names of all tables present in the data directory.
func (s *Store) Tables() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.NewPersistence("*", "read", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(n, config.TableFileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(n, config.TableFileExt))
	}
	sort.Strings(names)
	return names, nil
}
