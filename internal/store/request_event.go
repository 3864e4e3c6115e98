package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var requestEventColumns = []string{
	"id", "sequence", "timestamp", "operation", "target",
	"latency_ms", "success", "error_message",
}

// SQLEventRepo implements EventRepo on SQLite and adds read access for the
// events command.
type SQLEventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var _ EventRepo = (*SQLEventRepo)(nil)

func (r *SQLEventRepo) AppendRequestEvent(ctx context.Context, data RequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableRequestEvents).
		Columns("sequence", "timestamp", "operation", "target", "latency_ms", "success", "error_message").
		Values(seqNum, time.Now().UnixMilli(), data.Operation, data.Target, data.LatencyMs, data.Success, data.ErrorMessage).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save request event: %w", err)
	}
	return nil
}

// QueryRequestEvents returns events matching opts, newest first.
func (r *SQLEventRepo) QueryRequestEvents(ctx context.Context, opts QueryOpts) ([]RequestEvent, error) {
	d := entsql.Dialect(dialect.SQLite)
	sel := d.Select(requestEventColumns...).From(d.Table(tableRequestEvents))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request events: %w", err)
	}
	defer rows.Close()

	var out []RequestEvent
	for rows.Next() {
		e, err := scanRequestEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetRequestEvent returns a single event by id, or nil when it doesn't exist.
func (r *SQLEventRepo) GetRequestEvent(ctx context.Context, id int64) (*RequestEvent, error) {
	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select(requestEventColumns...).
		From(d.Table(tableRequestEvents)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanRequestEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequestEvent(row rowScanner) (*RequestEvent, error) {
	var (
		e  RequestEvent
		ts int64
	)
	err := row.Scan(&e.ID, &e.Sequence, &ts, &e.Operation, &e.Target,
		&e.LatencyMs, &e.Success, &e.ErrorMessage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan request event: %w", err)
	}
	e.Timestamp = time.UnixMilli(ts)
	return &e, nil
}
