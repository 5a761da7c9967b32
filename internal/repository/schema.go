package repository

import (
	"context"
	"database/sql"
	"fmt"

	"todo-service/pkg/db"
)

// NotesTable is the single table owned by the service
const NotesTable = "todo_list_table"

const createTableMySQL = `
	CREATE TABLE IF NOT EXISTS todo_list_table (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_ip VARCHAR(64) NOT NULL,
		note_text TEXT NOT NULL,
		note_status INT NULL,
		INDEX todo_list_table_user_ip_index (user_ip)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
`

const createTablePostgres = `
	CREATE TABLE IF NOT EXISTS todo_list_table (
		id SERIAL PRIMARY KEY,
		user_ip VARCHAR(64) NOT NULL,
		note_text TEXT NOT NULL,
		note_status INTEGER
	)
`

// EnsureSchema creates the notes table when it is missing
func EnsureSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	ddl := createTableMySQL
	if dialect == db.Postgres {
		ddl = createTablePostgres
	}

	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", NotesTable, err)
	}
	return nil
}

// ExpectedSchema describes the columns the repository queries rely on
func ExpectedSchema(dialect db.Dialect) db.TableSchema {
	if dialect == db.Postgres {
		return db.TableSchema{
			Name: NotesTable,
			Columns: []db.ColumnType{
				{Name: "id", DataType: "integer"},
				{Name: "user_ip", DataType: "character varying"},
				{Name: "note_text", DataType: "text"},
				{Name: "note_status", DataType: "integer", Nullable: true},
			},
		}
	}

	return db.TableSchema{
		Name: NotesTable,
		Columns: []db.ColumnType{
			{Name: "id", DataType: "bigint"},
			{Name: "user_ip", DataType: "varchar"},
			{Name: "note_text", DataType: "text"},
			{Name: "note_status", DataType: "int", Nullable: true},
		},
	}
}
