// Package translog records one row per finished relay transfer. It is pure
// observability: appends are independent and the relay never reads it back.
package translog

import (
	"context"
	"database/sql"
	"time"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Entry struct {
	Key      string
	Outcome  string
	Bytes    int64
	Duration time.Duration
	Detail   string // error text for failed transfers
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (key, outcome, bytes, duration_ms, detail, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.Key, e.Outcome, e.Bytes, e.Duration.Milliseconds(), e.Detail, time.Now().Unix())
	return err
}
