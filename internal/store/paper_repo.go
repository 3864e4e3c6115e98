package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/paperz/internal/paper"
)

var attemptColumns = []string{
	"id", "paper_id", "user_id", "status", "started_at", "finished_at", "created_at",
}

// paperRepo implements PaperRepo with ent's SQL builders over *sql.DB.
type paperRepo struct {
	db *sql.DB
}

func (r *paperRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *paperRepo) SavePaper(ctx context.Context, id, title string, payload []byte) error {
	query, args := r.builder().
		Insert(tablePapers).
		Columns("id", "title", "payload", "imported_at").
		Values(id, title, payload, time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save paper %s: %w", id, err)
	}
	return nil
}

func (r *paperRepo) GetPaper(ctx context.Context, id string) ([]byte, error) {
	d := r.builder()
	query, args := d.Select("payload").
		From(d.Table(tablePapers)).
		Where(entsql.EQ("id", id)).
		Query()

	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get paper %s: %w", id, err)
	}
	return payload, nil
}

func (r *paperRepo) ListPapers(ctx context.Context) ([]PaperSummary, error) {
	d := r.builder()
	query, args := d.Select("id", "title", "imported_at").
		From(d.Table(tablePapers)).
		OrderBy(entsql.Desc("imported_at"), "id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var out []PaperSummary
	for rows.Next() {
		var (
			s  PaperSummary
			ts int64
		)
		if err := rows.Scan(&s.ID, &s.Title, &ts); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		s.ImportedAt = time.UnixMilli(ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *paperRepo) CreateAttempt(ctx context.Context, a paper.Attempt) error {
	query, args := r.builder().
		Insert(tableAttempts).
		Columns(attemptColumns...).
		Values(a.ID, a.PaperID, a.UserID, string(a.Status),
			nullMillis(a.StartedAt), nullMillis(a.FinishedAt), a.CreatedAt.UnixMilli()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (r *paperRepo) GetAttempt(ctx context.Context, id string) (*paper.Attempt, error) {
	d := r.builder()
	query, args := d.Select(attemptColumns...).
		From(d.Table(tableAttempts)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *paperRepo) ListAttempts(ctx context.Context, paperID, userID string) ([]paper.Attempt, error) {
	d := r.builder()
	query, args := d.Select(attemptColumns...).
		From(d.Table(tableAttempts)).
		Where(entsql.And(
			entsql.EQ("paper_id", paperID),
			entsql.EQ("user_id", userID),
		)).
		OrderBy("created_at", "rowid").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []paper.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *paperRepo) UpdateAttempt(ctx context.Context, id string, status paper.Status, startedAt, finishedAt *time.Time) error {
	upd := r.builder().
		Update(tableAttempts).
		Set("status", string(status)).
		Where(entsql.EQ("id", id))
	if startedAt != nil {
		upd.Set("started_at", startedAt.UnixMilli())
	}
	if finishedAt != nil {
		upd.Set("finished_at", finishedAt.UnixMilli())
	}

	query, args := upd.Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update attempt %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attempt %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paperRepo) UpsertAnswer(ctx context.Context, row AnswerRow) error {
	if row.AnsweredAt.IsZero() {
		row.AnsweredAt = time.Now()
	}
	query, args := r.builder().
		Insert(tableAnswers).
		Columns("attempt_id", "exercise_id", "item_id", "answer_index", "time_spent", "answered_at").
		Values(row.AttemptID, row.ExerciseID, row.ItemID, row.AnswerIndex, row.TimeSpent, row.AnsweredAt.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("attempt_id", "item_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (r *paperRepo) ListAnswers(ctx context.Context, attemptID string) ([]AnswerRow, error) {
	d := r.builder()
	query, args := d.Select("attempt_id", "exercise_id", "item_id", "answer_index", "time_spent", "answered_at").
		From(d.Table(tableAnswers)).
		Where(entsql.EQ("attempt_id", attemptID)).
		OrderBy("answered_at", "item_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerRow
	for rows.Next() {
		var (
			a  AnswerRow
			ts int64
		)
		if err := rows.Scan(&a.AttemptID, &a.ExerciseID, &a.ItemID, &a.AnswerIndex, &a.TimeSpent, &ts); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.AnsweredAt = time.UnixMilli(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttempt(row rowScanner) (*paper.Attempt, error) {
	var (
		a                 paper.Attempt
		status            string
		started, finished sql.NullInt64
		created           int64
	)
	err := row.Scan(&a.ID, &a.PaperID, &a.UserID, &status, &started, &finished, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	a.Status = paper.Status(status)
	a.StartedAt = fromNullMillis(started)
	a.FinishedAt = fromNullMillis(finished)
	a.CreatedAt = time.UnixMilli(created)
	return &a, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64)
	return &t
}
