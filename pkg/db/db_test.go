package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{in: "", want: MySQL},
		{in: "mysql", want: MySQL},
		{in: "Postgres", want: Postgres},
		{in: "pg", want: Postgres},
		{in: "sqlite", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE id = ?"

	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", Postgres.Rebind(q))
}

func TestDialect_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 3306, User: "u", Password: "p", Database: "todo"}

	assert.Equal(t,
		"u:p@tcp(db:3306)/todo?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		MySQL.DSN(cfg))

	cfg.Port = 5432
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=todo sslmode=disable",
		Postgres.DSN(cfg))
}

func TestSchemaGuard_ValidateTable(t *testing.T) {
	schema := TableSchema{
		Name: "todo_list_table",
		Columns: []ColumnType{
			{Name: "id", DataType: "bigint"},
			{Name: "user_ip", DataType: "varchar"},
			{Name: "note_status", DataType: "int", Nullable: true},
		},
	}
	columns := []string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}

	t.Run("matching schema", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE\(\)`).
			WithArgs("todo_list_table").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("id", "bigint", "NO").
				AddRow("user_ip", "varchar", "NO").
				AddRow("note_text", "text", "NO").
				AddRow("note_status", "int", "YES"))

		err = NewSchemaGuard(db, MySQL).ValidateTable(context.Background(), schema)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing table", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COLUMN_NAME`).
			WithArgs("todo_list_table").
			WillReturnRows(sqlmock.NewRows(columns))

		err = NewSchemaGuard(db, MySQL).ValidateTable(context.Background(), schema)
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("wrong type", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COLUMN_NAME`).
			WithArgs("todo_list_table").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("id", "bigint", "NO").
				AddRow("user_ip", "text", "NO").
				AddRow("note_status", "int", "YES"))

		err = NewSchemaGuard(db, MySQL).ValidateTable(context.Background(), schema)
		assert.ErrorContains(t, err, "column user_ip has type text")
	})

	t.Run("postgres uses current_schema and numbered args", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`TABLE_SCHEMA = current_schema\(\)\s+AND TABLE_NAME = \$1`).
			WithArgs("todo_list_table").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("id", "integer", "NO"))

		err = NewSchemaGuard(db, Postgres).ValidateTable(context.Background(), TableSchema{
			Name:    "todo_list_table",
			Columns: []ColumnType{{Name: "id", DataType: "integer"}},
		})
		assert.NoError(t, err)
	})
}
