package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// Writer collects records of one kind and exports them to a file.
type Writer[T any] interface {
	// Initialize sets up the writer, creating the staging table.
	Initialize() error
	// Write stages a single record.
	Write(record T) error
	// Finalize commits the staged records and exports them to the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// Format is the file format a writer exports to.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// FormatFromPath picks the export format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported output file type %q", filepath.Ext(path))
	}
}

// duckDBTable stages rows in an in-memory DuckDB table inside a single
// transaction and copies the table to a file on finalize.
type duckDBTable struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	table      string
	outputPath string
}

func newDuckDBTable(table string, outputPath string) duckDBTable {
	return duckDBTable{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		table:      table,
		outputPath: outputPath,
	}
}

// open creates the table with the given column definitions and prepares
// an insert of every column.
func (t *duckDBTable) open(columns []string, definitions []string) (err error) {
	if _, err := FormatFromPath(t.outputPath); err != nil {
		return err
	}

	t.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to open DuckDB connection", err)
	}

	// CREATE TABLE is not supported by squirrel
	_, err = t.db.Exec(fmt.Sprintf(`CREATE TABLE %s (%s)`, t.table, strings.Join(definitions, ", ")))
	if err != nil {
		t.db.Close()

		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to create table", err)
	}

	t.tx, err = t.db.Begin()
	if err != nil {
		t.db.Close()

		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to begin transaction", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	t.stmt, err = t.tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		t.table, strings.Join(quoteAll(columns), ", "), placeholders))
	if err != nil {
		t.tx.Rollback()
		t.db.Close()

		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

func (t *duckDBTable) insert(values ...any) error {
	if t.stmt == nil {
		return errors.New(errors.ErrCodeReportWriteFailed, "writer not initialized")
	}

	if _, err := t.stmt.Exec(values...); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to insert row", err)
	}

	return nil
}

// finalize commits the transaction and copies the table to the output path.
func (t *duckDBTable) finalize() (string, error) {
	if t.tx == nil {
		return "", errors.New(errors.ErrCodeReportWriteFailed, "writer not initialized or already finalized")
	}

	if err := t.tx.Commit(); err != nil {
		t.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to commit transaction", err)
	}

	t.tx = nil

	format, err := FormatFromPath(t.outputPath)
	if err != nil {
		return "", err
	}

	options := "FORMAT PARQUET"
	if format == FormatCSV {
		options = "FORMAT CSV, HEADER"
	}

	// COPY is not supported by squirrel
	_, err = t.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (%s)`, t.table, strings.ReplaceAll(t.outputPath, "'", "''"), options))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to export %s", t.outputPath)
	}

	return t.outputPath, nil
}

func (t *duckDBTable) close() error {
	var closeErrors []error

	if t.stmt != nil {
		if err := t.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		t.stmt = nil
	}

	// still open when Finalize was not called or failed
	if t.tx != nil {
		if err := t.tx.Rollback(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to rollback transaction: %w", err))
		}

		t.tx = nil
	}

	if t.db != nil {
		if err := t.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		t.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return errors.New(errors.ErrCodeReportWriteFailed, errMsg)
	}

	return nil
}

func quoteAll(columns []string) []string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = quote(column)
	}

	return quoted
}

func quote(column string) string {
	return `"` + strings.ReplaceAll(column, `"`, `""`) + `"`
}
