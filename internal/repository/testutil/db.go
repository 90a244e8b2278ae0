package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// SetupMockDB opens a sqlmock-backed connection for repository tests. The
// default regexp query matcher fits the partial SQL patterns the tests
// expect with; expectation verification stays with the caller.
func SetupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "open sqlmock connection")

	return db, mock, func() { db.Close() }
}
