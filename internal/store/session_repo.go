package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mockview/internal/domain"
)

const (
	tableSessions = "interview_sessions"
	tableMessages = "interview_messages"
	tableMetrics  = "performance_metrics"
)

// sessionRepo implements SessionRepo on SQLite.
type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args := builder().Insert(tableSessions).
			Columns("id", "user_id", "role", "level", "current_difficulty", "status", "created_at").
			Values(s.ID, s.UserID, s.Role, string(s.Level), s.CurrentDifficulty, string(s.Status), toMillis(s.CreatedAt)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		for i, m := range s.PerformanceHistory {
			if err := insertMetric(ctx, tx, s.ID, i, m); err != nil {
				return err
			}
		}
		for i, m := range s.Messages {
			if err := insertMessage(ctx, tx, s.ID, i, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepo) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query, args := builder().
		Select("id", "user_id", "role", "level", "current_difficulty", "status",
			"evaluation", "created_at", "ended_at", "duration_ms").
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		s          domain.Session
		level      string
		status     string
		evaluation sql.NullString
		createdAt  int64
		endedAt    sql.NullInt64
		durationMs int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &s.Role, &level, &s.CurrentDifficulty, &status,
		&evaluation, &createdAt, &endedAt, &durationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.Level = domain.Level(level)
	s.Status = domain.Status(status)
	s.CreatedAt = fromMillis(createdAt)
	s.Duration = time.Duration(durationMs) * time.Millisecond
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		s.EndedAt = &t
	}
	if evaluation.Valid {
		var ev domain.Evaluation
		if err := json.Unmarshal([]byte(evaluation.String), &ev); err != nil {
			return nil, fmt.Errorf("decode evaluation: %w", err)
		}
		s.Evaluation = &ev
	}

	if s.Messages, err = r.loadMessages(ctx, id); err != nil {
		return nil, err
	}
	if s.PerformanceHistory, err = r.loadMetrics(ctx, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) loadMessages(ctx context.Context, id string) ([]domain.Message, error) {
	query, args := builder().
		Select("role", "content", "metric_index", "created_at").
		From(entsql.Table(tableMessages)).
		Where(entsql.EQ("session_id", id)).
		OrderBy("seq").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var (
			m         domain.Message
			role      string
			metricIdx sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&role, &m.Content, &metricIdx, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.MessageRole(role)
		m.Timestamp = fromMillis(createdAt)
		if metricIdx.Valid {
			idx := int(metricIdx.Int64)
			m.MetricIndex = &idx
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *sessionRepo) loadMetrics(ctx context.Context, id string) ([]domain.PerformanceMetric, error) {
	query, args := builder().
		Select("question_number", "technical_depth", "clarity", "confidence", "source", "created_at").
		From(entsql.Table(tableMetrics)).
		Where(entsql.EQ("session_id", id)).
		OrderBy("seq").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	history := []domain.PerformanceMetric{}
	for rows.Next() {
		var (
			m         domain.PerformanceMetric
			createdAt int64
		)
		if err := rows.Scan(&m.QuestionNumber, &m.TechnicalDepth, &m.Clarity, &m.Confidence, &m.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Timestamp = fromMillis(createdAt)
		history = append(history, m)
	}
	return history, rows.Err()
}

func (r *sessionRepo) AppendMessage(ctx context.Context, id string, msg domain.Message) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := requireActive(ctx, tx, id); err != nil {
			return err
		}
		seq, err := countRows(ctx, tx, tableMessages, id)
		if err != nil {
			return err
		}
		return insertMessage(ctx, tx, id, seq, msg)
	})
}

func (r *sessionRepo) RecordMetric(ctx context.Context, id string, m domain.PerformanceMetric) (int, error) {
	var idx int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := requireActive(ctx, tx, id); err != nil {
			return err
		}
		seq, err := countRows(ctx, tx, tableMetrics, id)
		if err != nil {
			return err
		}
		idx = seq
		return insertMetric(ctx, tx, id, seq, m)
	})
	return idx, err
}

func (r *sessionRepo) SetDifficulty(ctx context.Context, id string, difficulty float64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := requireActive(ctx, tx, id); err != nil {
			return err
		}
		query, args := builder().Update(tableSessions).
			Set("current_difficulty", difficulty).
			Where(entsql.EQ("id", id)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("set difficulty: %w", err)
		}
		return nil
	})
}

func (r *sessionRepo) CompleteSession(ctx context.Context, id string, ev domain.Evaluation, endedAt time.Time) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		createdAt, err := requireActive(ctx, tx, id)
		if err != nil {
			return err
		}
		query, args := builder().Update(tableSessions).
			Set("status", string(domain.StatusCompleted)).
			Set("evaluation", string(raw)).
			Set("overall_score", ev.OverallScore).
			Set("ended_at", toMillis(endedAt)).
			Set("duration_ms", endedAt.Sub(createdAt).Milliseconds()).
			Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(domain.StatusActive)))).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		return nil
	})
}

func (r *sessionRepo) AbandonSession(ctx context.Context, id string, endedAt time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		createdAt, err := requireActive(ctx, tx, id)
		if err != nil {
			return err
		}
		query, args := builder().Update(tableSessions).
			Set("status", string(domain.StatusAbandoned)).
			Set("ended_at", toMillis(endedAt)).
			Set("duration_ms", endedAt.Sub(createdAt).Milliseconds()).
			Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(domain.StatusActive)))).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("abandon session: %w", err)
		}
		return nil
	})
}

func (r *sessionRepo) ListSessions(ctx context.Context, opts ListOpts) ([]domain.Summary, error) {
	sel := builder().
		Select("id", "user_id", "role", "level", "status", "current_difficulty",
			"overall_score", "created_at", "ended_at").
		From(entsql.Table(tableSessions))

	var preds []*entsql.Predicate
	if opts.UserID != "" {
		preds = append(preds, entsql.EQ("user_id", opts.UserID))
	}
	if opts.Status != "" {
		preds = append(preds, entsql.EQ("status", string(opts.Status)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []domain.Summary{}
	for rows.Next() {
		var (
			s         domain.Summary
			level     string
			status    string
			overall   sql.NullFloat64
			createdAt int64
			endedAt   sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Role, &level, &status, &s.CurrentDifficulty,
			&overall, &createdAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Level = domain.Level(level)
		s.Status = domain.Status(status)
		s.CreatedAt = fromMillis(createdAt)
		if overall.Valid {
			v := overall.Float64
			s.OverallScore = &v
		}
		if endedAt.Valid {
			t := fromMillis(endedAt.Int64)
			s.EndedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// requireActive returns the session's creation time, or ErrNotFound /
// ErrSessionClosed.
func requireActive(ctx context.Context, tx *sql.Tx, id string) (time.Time, error) {
	query, args := builder().
		Select("status", "created_at").
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		status    string
		createdAt int64
	)
	err := tx.QueryRowContext(ctx, query, args...).Scan(&status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load session status: %w", err)
	}
	if domain.Status(status).Terminal() {
		return time.Time{}, fmt.Errorf("session %s is %s: %w", id, status, domain.ErrSessionClosed)
	}
	return fromMillis(createdAt), nil
}

func countRows(ctx context.Context, tx *sql.Tx, table, sessionID string) (int, error) {
	query, args := builder().
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, sessionID string, seq int, m domain.Message) error {
	var metricIdx any
	if m.MetricIndex != nil {
		metricIdx = *m.MetricIndex
	}
	query, args := builder().Insert(tableMessages).
		Columns("session_id", "seq", "role", "content", "metric_index", "created_at").
		Values(sessionID, seq, string(m.Role), m.Content, metricIdx, toMillis(m.Timestamp)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func insertMetric(ctx context.Context, tx *sql.Tx, sessionID string, seq int, m domain.PerformanceMetric) error {
	query, args := builder().Insert(tableMetrics).
		Columns("session_id", "seq", "question_number", "technical_depth", "clarity", "confidence", "source", "created_at").
		Values(sessionID, seq, m.QuestionNumber, m.TechnicalDepth, m.Clarity, m.Confidence, m.Source, toMillis(m.Timestamp)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
