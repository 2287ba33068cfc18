// Package postgis connects to a PostGIS database described by an OGR "PG:"
// connection string and lists its spatial tables.
package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// register the postgres driver
	_ "github.com/lib/pq"
)

// keys understood by ogr2ogr but not by libpq
var ogrOnly = map[string]bool{
	"active_schema": true,
	"schemas":       true,
	"tables":        true,
}

// Table is one row of geometry_columns.
type Table struct {
	Schema   string
	Name     string
	Column   string
	Geometry string
	SRID     int
}

// DSN converts an OGR connection string such as
// `PG:host=localhost dbname=py_test active_schema=public` to a libpq DSN.
// sslmode=disable is added unless the connection sets it.
func DSN(ogrConn string) string {
	conn := strings.TrimSpace(ogrConn)
	if len(conn) >= 3 && strings.EqualFold(conn[:3], "PG:") {
		conn = conn[3:]
	}
	conn = strings.Trim(conn, `"'`)

	var keep []string
	ssl := false
	for _, field := range strings.Fields(conn) {
		key := strings.ToLower(strings.SplitN(field, "=", 2)[0])
		if ogrOnly[key] {
			continue
		}
		if key == "sslmode" {
			ssl = true
		}
		keep = append(keep, field)
	}
	if !ssl {
		keep = append(keep, "sslmode=disable")
	}
	return strings.Join(keep, " ")
}

// Open connects to the database of ogrConn and pings it.
func Open(ctx context.Context, ogrConn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(ogrConn))
	if err != nil {
		return nil, fmt.Errorf("[sql.Open] in pkg [postgis] encountered: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("[PingContext] in pkg [postgis] encountered: %w", err)
	}
	return db, nil
}

const listTables = `SELECT f_table_schema, f_table_name, f_geometry_column, type, srid
FROM geometry_columns
WHERE f_table_schema = $1
ORDER BY f_table_name`

// ListTables returns the spatial tables of schema in name order.
func ListTables(ctx context.Context, db *sql.DB, schema string) ([]Table, error) {
	rows, err := db.QueryContext(ctx, listTables, schema)
	if err != nil {
		return nil, fmt.Errorf("[QueryContext] in pkg [postgis] encountered: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name, &t.Column, &t.Geometry, &t.SRID); err != nil {
			return nil, fmt.Errorf("[rows.Scan] in pkg [postgis] encountered: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// Names returns the table names.
func Names(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// Schema returns the active_schema of an OGR connection string, or "".
func Schema(ogrConn string) string {
	for _, field := range strings.Fields(strings.Trim(strings.TrimPrefix(ogrConn, "PG:"), `"'`)) {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], "active_schema") {
			return kv[1]
		}
	}
	return ""
}
