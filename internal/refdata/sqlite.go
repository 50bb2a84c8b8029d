package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/pkg/logger"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource keeps reference tables in SQLite, one table per family with
// the family's standard column names.
type SQLiteSource struct {
	db     *sql.DB
	tables map[procdb.Family]string
	logger *logger.Logger
}

// OpenSQLite opens (or creates) the database file at path
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	return db, nil
}

// NewSQLiteSource creates a SQLite source over db, creating the family
// tables when they do not exist yet
func NewSQLiteSource(db *sql.DB, dpTable, starTable string, logger *logger.Logger) (*SQLiteSource, error) {
	for _, name := range []string{dpTable, starTable} {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid sqlite table name: %q", name)
		}
	}

	source := &SQLiteSource{
		db: db,
		tables: map[procdb.Family]string{
			procdb.DP:   dpTable,
			procdb.STAR: starTable,
		},
		logger: logger.Named("refdata-sqlite"),
	}

	if err := source.initDB(); err != nil {
		return nil, err
	}
	return source, nil
}

// columns returns the standard column list of a family
func columns(f procdb.Family) []string {
	schema := procdb.SchemaFor(f)
	return []string{
		schema.EffectiveDate,
		schema.Name,
		schema.FullCode,
		schema.ServedGroup,
		schema.Transition,
		schema.RoutePoints,
	}
}

// initDB initializes the family tables
func (s *SQLiteSource) initDB() error {
	for _, f := range procdb.Families {
		table := s.tables[f]
		schema := procdb.SchemaFor(f)

		_, err := s.db.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				%s TEXT,
				%s TEXT,
				%s TEXT NOT NULL,
				%s TEXT NOT NULL,
				%s TEXT,
				%s TEXT NOT NULL
			)`, table,
			schema.EffectiveDate, schema.Name, schema.FullCode,
			schema.ServedGroup, schema.Transition, schema.RoutePoints,
		))
		if err != nil {
			return fmt.Errorf("failed to create %s table: %w", table, err)
		}

		indexes := []string{
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_code ON %s(%s)`, table, table, schema.FullCode),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_transition ON %s(%s)`, table, table, schema.Transition),
		}
		for _, indexSQL := range indexes {
			if _, err := s.db.Exec(indexSQL); err != nil {
				return fmt.Errorf("failed to create %s index: %w", table, err)
			}
		}
	}
	return nil
}

// Name implements Source
func (s *SQLiteSource) Name() string {
	return "sqlite"
}

// Fetch implements Source. Rows come back in insertion order, which is the
// order the store sees them in.
func (s *SQLiteSource) Fetch(ctx context.Context, f procdb.Family) (procdb.Table, error) {
	cols := columns(f)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY id`, strings.Join(cols, ", "), s.tables[f],
	))
	if err != nil {
		return procdb.Table{}, fmt.Errorf("failed to query %s procedures: %w", f, err)
	}
	defer rows.Close()

	return s.scanTableRows(rows, cols)
}

// scanTableRows scans rows into a table with the given header
func (s *SQLiteSource) scanTableRows(rows *sql.Rows, cols []string) (procdb.Table, error) {
	table := procdb.Table{Columns: cols}

	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return procdb.Table{}, fmt.Errorf("failed to scan procedure row: %w", err)
		}

		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = v.String
		}
		table.Rows = append(table.Rows, record)
	}

	if err := rows.Err(); err != nil {
		return procdb.Table{}, fmt.Errorf("error iterating procedure rows: %w", err)
	}
	return table, nil
}

// Import replaces the stored rows of a family with table. The whole
// replacement runs in one transaction.
func (s *SQLiteSource) Import(ctx context.Context, f procdb.Family, table procdb.Table) (int, error) {
	rows, err := procdb.RowsFromTable(table, procdb.SchemaFor(f))
	if err != nil {
		return 0, fmt.Errorf("failed to import %s procedures: %w", f, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name := s.tables[f]
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, name)); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", name, err)
	}

	cols := columns(f)
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)`, name, strings.Join(cols, ", "),
	))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.EffectiveDate,
			row.Name,
			row.FullCode,
			row.ServedGroup,
			row.Transition,
			row.RoutePoints,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s procedure: %w", f, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s import: %w", f, err)
	}

	s.logger.Info("Imported reference rows",
		logger.String("family", f.String()),
		logger.String("table", name),
		logger.Int("rows", len(rows)),
	)
	return len(rows), nil
}
