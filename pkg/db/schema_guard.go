package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ColumnType represents expected column schema
type ColumnType struct {
	Name     string
	DataType string
	Nullable bool
}

// TableSchema represents expected table structure
type TableSchema struct {
	Name    string
	Columns []ColumnType
}

// SchemaGuard validates database schema matches expectations
type SchemaGuard struct {
	db      *sql.DB
	dialect Dialect
}

// NewSchemaGuard creates a new schema guard
func NewSchemaGuard(db *sql.DB, dialect Dialect) *SchemaGuard {
	return &SchemaGuard{db: db, dialect: dialect}
}

const columnsQuery = `
	SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = %s
	AND TABLE_NAME = ?
	ORDER BY ORDINAL_POSITION
`

func (sg *SchemaGuard) columnsQuery() string {
	schemaFn := "DATABASE()"
	if sg.dialect == Postgres {
		schemaFn = "current_schema()"
	}
	return sg.dialect.Rebind(fmt.Sprintf(columnsQuery, schemaFn))
}

// ValidateTable validates a table's schema
func (sg *SchemaGuard) ValidateTable(ctx context.Context, schema TableSchema) error {
	rows, err := sg.db.QueryContext(ctx, sg.columnsQuery(), schema.Name)
	if err != nil {
		return fmt.Errorf("failed to query table schema for %s: %w", schema.Name, err)
	}
	defer rows.Close()

	actualColumns := make(map[string]ColumnType)
	for rows.Next() {
		var colName, dataType, isNullable string
		if err := rows.Scan(&colName, &dataType, &isNullable); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		actualColumns[strings.ToLower(colName)] = ColumnType{
			Name:     colName,
			DataType: strings.ToLower(dataType),
			Nullable: isNullable == "YES",
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read column info: %w", err)
	}

	if len(actualColumns) == 0 {
		return fmt.Errorf("table %s does not exist or has no columns", schema.Name)
	}

	for _, expectedCol := range schema.Columns {
		actualCol, exists := actualColumns[strings.ToLower(expectedCol.Name)]
		if !exists {
			return fmt.Errorf("table %s missing expected column: %s", schema.Name, expectedCol.Name)
		}

		if !matchesDataType(actualCol.DataType, expectedCol.DataType) {
			return fmt.Errorf("table %s column %s has type %s, expected %s",
				schema.Name, expectedCol.Name, actualCol.DataType, expectedCol.DataType)
		}

		if actualCol.Nullable != expectedCol.Nullable {
			return fmt.Errorf("table %s column %s nullable=%t, expected %t",
				schema.Name, expectedCol.Name, actualCol.Nullable, expectedCol.Nullable)
		}
	}

	return nil
}

// matchesDataType checks if data types are compatible (varchar matches varchar(64))
func matchesDataType(actual, expected string) bool {
	expected = strings.ToLower(expected)
	if actual == expected {
		return true
	}
	return strings.HasPrefix(actual, expected)
}
