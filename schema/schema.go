// Package schema introspects SQLite databases for the index report: table
// layout, foreign keys, indexes, and row counts. It is a collaborator of the
// builder, not part of it; the builder merges its output opaquely.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Column describes one table column.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	NotNull      bool   `json:"not_null,omitempty"`
	PrimaryKey   bool   `json:"primary_key,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

// ForeignKey describes one outgoing reference.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// Table is the introspected shape of one database table.
type Table struct {
	Name        string       `json:"table"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []string     `json:"indexes,omitempty"`
	RowCount    int64        `json:"sample_record_count"`
}

// Introspect opens a SQLite database read-only and returns its tables in
// name order. Internal sqlite_* tables are skipped.
func Introspect(ctx context.Context, dbPath string) ([]Table, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connecting to database %s: %w", dbPath, err)
	}

	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		table, err := introspectTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func introspectTable(ctx context.Context, db *sql.DB, name string) (Table, error) {
	table := Table{Name: name}

	columns, err := tableColumns(ctx, db, name)
	if err != nil {
		return table, err
	}
	table.Columns = columns

	foreignKeys, err := tableForeignKeys(ctx, db, name)
	if err != nil {
		return table, err
	}
	table.ForeignKeys = foreignKeys

	indexes, err := tableIndexes(ctx, db, name)
	if err != nil {
		return table, err
	}
	table.Indexes = indexes

	// Table names come from sqlite_master, not user input, but quote anyway.
	row := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name))
	if err := row.Scan(&table.RowCount); err != nil {
		return table, fmt.Errorf("counting rows of %s: %w", name, err)
	}

	return table, nil
}

func tableColumns(ctx context.Context, db *sql.DB, name string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid          int
			colName      string
			colType      string
			notNull      int
			defaultValue sql.NullString
			primaryKey   int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &primaryKey); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", name, err)
		}
		columns = append(columns, Column{
			Name:         colName,
			Type:         colType,
			NotNull:      notNull != 0,
			PrimaryKey:   primaryKey != 0,
			DefaultValue: defaultValue.String,
		})
	}
	return columns, rows.Err()
}

func tableForeignKeys(ctx context.Context, db *sql.DB, name string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%q)`, name))
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", name, err)
	}
	defer rows.Close()

	var keys []ForeignKey
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scanning foreign key of %s: %w", name, err)
		}
		keys = append(keys, ForeignKey{
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String,
		})
	}
	return keys, rows.Err()
}

func tableIndexes(ctx context.Context, db *sql.DB, name string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%q)`, name))
	if err != nil {
		return nil, fmt.Errorf("reading indexes of %s: %w", name, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var (
			seq       int
			indexName string
			unique    int
			origin    string
			partial   int
		)
		if err := rows.Scan(&seq, &indexName, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("scanning index of %s: %w", name, err)
		}
		indexes = append(indexes, indexName)
	}
	sort.Strings(indexes)
	return indexes, rows.Err()
}
