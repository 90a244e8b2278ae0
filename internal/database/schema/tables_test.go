package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableDefinitions(t *testing.T) {
	t.Run("Every table in TableNames has a CREATE TABLE statement", func(t *testing.T) {
		allStatements := strings.Join(TableDefinitions, " ")

		for _, tableName := range TableNames {
			assert.Contains(t, allStatements, "CREATE TABLE IF NOT EXISTS "+tableName,
				"TableDefinitions should create table: %s", tableName)
		}
	})

	t.Run("All statements are non-empty", func(t *testing.T) {
		for i, statement := range TableDefinitions {
			assert.NotEmpty(t, strings.TrimSpace(statement), "Statement at index %d should not be empty", i)
		}
	})

	t.Run("Statements are idempotent", func(t *testing.T) {
		for i, statement := range TableDefinitions {
			upperStatement := strings.ToUpper(statement)
			assert.Contains(t, upperStatement, "IF NOT EXISTS",
				"Statement %d should be safe to run twice", i)
		}
	})

	t.Run("No foreign key references in table creation", func(t *testing.T) {
		// Tables are created in a loop without dependency ordering guarantees
		for i, statement := range TableDefinitions {
			upperStatement := strings.ToUpper(statement)
			assert.NotContains(t, upperStatement, "REFERENCES",
				"Statement %d should not declare foreign keys", i)
		}
	})
}

func TestGetMigrationStatements(t *testing.T) {
	t.Run("Returns migration statements", func(t *testing.T) {
		statements := GetMigrationStatements()

		assert.NotNil(t, statements, "Migration statements should not be nil")
		assert.Greater(t, len(statements), 0, "Should have at least one migration statement")
		assert.Equal(t, MigrationStatements, statements, "Should return the same statements as MigrationStatements")
	})

	t.Run("Statements are valid SQL format", func(t *testing.T) {
		for i, statement := range GetMigrationStatements() {
			upperStatement := strings.ToUpper(strings.TrimSpace(statement))

			hasSQLKeywords := strings.Contains(upperStatement, "CREATE") ||
				strings.Contains(upperStatement, "ALTER") ||
				strings.Contains(upperStatement, "DO") ||
				strings.Contains(upperStatement, "BEGIN")

			assert.True(t, hasSQLKeywords, "Statement %d should contain SQL keywords", i)
			assert.NotEmpty(t, strings.TrimSpace(statement), "Statement %d should not be empty", i)
		}
	})
}

func TestTableNames(t *testing.T) {
	t.Run("Contains expected tables", func(t *testing.T) {
		expectedTables := []string{
			"tenants",
			"sending_domains",
			"outbox",
			"send_queue",
			"email_logs",
			"suppressions",
			"dead_letters",
			"feedback_queue",
		}

		for _, expectedTable := range expectedTables {
			assert.Contains(t, TableNames, expectedTable, "TableNames should contain: %s", expectedTable)
		}
	})

	t.Run("No duplicate table names", func(t *testing.T) {
		seen := make(map[string]bool)

		for _, tableName := range TableNames {
			assert.False(t, seen[tableName], "Table name %s should not be duplicated", tableName)
			seen[tableName] = true
		}
	})

	t.Run("Table names follow naming convention", func(t *testing.T) {
		for _, tableName := range TableNames {
			assert.Equal(t, strings.ToLower(tableName), tableName, "Table name %s should be lowercase", tableName)
			assert.NotContains(t, tableName, " ", "Table name %s should not contain spaces", tableName)
			assert.NotContains(t, tableName, "-", "Table name %s should not contain hyphens", tableName)
		}
	})
}
