// Package query runs ad-hoc SQL over the collected tables with an
// in-memory DuckDB. Each table file is exposed as a view of the same name.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/xtxerr/feedlog/internal/logging"
)

var log = logging.Component("query")

// Catalog lists the tables to expose. *storage.Store implements it.
type Catalog interface {
	Tables() ([]string, error)
	Path(name string) string
}

// Service provides query capabilities over stored tables.
type Service struct {
	mu sync.Mutex

	db     *sql.DB
	views  []string
	closed bool

	// Statistics
	stats Stats
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// Result is a query result with every cell rendered as text. NULL is the
// empty string.
type Result struct {
	Columns []string
	Rows    [][]string
	Elapsed time.Duration
}

// New opens an in-memory DuckDB and registers one view per non-empty table.
func New(ctx context.Context, catalog Catalog) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Service{db: db}
	if err := s.registerViews(ctx, catalog); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) registerViews(ctx context.Context, catalog Catalog) error {
	tables, err := catalog.Tables()
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	for _, name := range tables {
		path := catalog.Path(name)
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			log.Debug("skipping empty table", "table", name, "path", path)
			continue
		}

		stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s, header = true)",
			quoteIdent(name), quoteLiteral(path))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("register view %s: %w", name, err)
		}
		s.views = append(s.views, name)
	}

	log.Debug("views registered", "views", s.views)
	return nil
}

// Views returns the registered view names.
func (s *Service) Views() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.views...)
}

// Query runs one SQL statement and collects the whole result.
func (s *Service) Query(ctx context.Context, query string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("query service is closed")
	}

	start := time.Now()
	res, err := s.query(ctx, query)
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	res.Elapsed = time.Since(start)

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(res.Rows))
	return res, nil
}

func (s *Service) query(ctx context.Context, query string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		out := make([]string, len(cols))
		for i, v := range raw {
			out[i] = formatCell(v)
		}
		res.Rows = append(res.Rows, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}

// Stats returns query statistics.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close closes the query service.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
