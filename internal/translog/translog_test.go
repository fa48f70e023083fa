package translog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/imgrelay/imgrelay/internal/db"
	"github.com/imgrelay/imgrelay/internal/translog"

	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "translog.db")
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	defer dbh.Close()

	repo := translog.NewRepo(dbh)
	require.NoError(t, repo.Append(ctx, translog.Entry{
		Key:      "photo1.jpg",
		Outcome:  translog.OutcomeOK,
		Bytes:    2097152,
		Duration: 120 * time.Millisecond,
	}))
	require.NoError(t, repo.Append(ctx, translog.Entry{
		Key:     "missing.jpg",
		Outcome: translog.OutcomeError,
		Detail:  "object not found",
	}))

	var n int
	require.NoError(t, dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers`).Scan(&n))
	require.Equal(t, 2, n)

	var outcome, detail string
	var bytes int64
	err = dbh.QueryRowContext(ctx,
		`SELECT outcome, detail, bytes FROM transfers WHERE key = $1`, "missing.jpg").
		Scan(&outcome, &detail, &bytes)
	require.NoError(t, err)
	require.Equal(t, translog.OutcomeError, outcome)
	require.Equal(t, "object not found", detail)
	require.Zero(t, bytes)
}
