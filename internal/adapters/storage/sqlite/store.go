package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/prepwise/interview-agent/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS interviews (
	id               TEXT PRIMARY KEY,
	role             TEXT NOT NULL,
	difficulty       TEXT NOT NULL,
	topic            TEXT NOT NULL,
	status           TEXT NOT NULL,
	current_state    TEXT NOT NULL,
	start_time       TEXT NOT NULL,
	end_time         TEXT,
	overall_feedback TEXT
);

CREATE TABLE IF NOT EXISTS questions (
	id           TEXT PRIMARY KEY,
	interview_id TEXT NOT NULL,
	content      TEXT NOT NULL,
	ord          INTEGER NOT NULL,
	created_at   TEXT NOT NULL,
	UNIQUE (interview_id, ord),
	FOREIGN KEY (interview_id) REFERENCES interviews(id)
);

CREATE TABLE IF NOT EXISTS answers (
	id          TEXT PRIMARY KEY,
	question_id TEXT NOT NULL UNIQUE,
	content     TEXT NOT NULL,
	score       INTEGER,
	audio_url   TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (question_id) REFERENCES questions(id)
);
`

// timeLayout is RFC3339 UTC with fixed-width nanoseconds. RFC3339Nano
// trims trailing fraction zeros, which breaks the lexicographic
// ordering ListSessions relies on for same-second timestamps.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sessionState is the mutable part of a session, stored as one JSON
// blob in the interviews row.
type sessionState struct {
	InitialDifficulty domain.Difficulty         `json:"initial_difficulty"`
	DynamicDifficulty domain.Difficulty         `json:"dynamic_difficulty"`
	DifficultyHistory []domain.Difficulty       `json:"difficulty_history"`
	Stage             domain.Stage              `json:"stage"`
	QuestionCount     int                       `json:"question_count"`
	Profile           domain.PerformanceProfile `json:"profile"`
	NextFocus         string                    `json:"next_focus"`
	Log               []domain.Turn             `json:"log"`
}

// Store is the durable SessionStore backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	state, err := marshalState(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interviews (id, role, difficulty, topic, status, current_state, start_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(session.ID), session.Role, string(session.InitialDifficulty), session.Topic,
		string(session.Status), state, session.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite CreateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, role, difficulty, topic, status, current_state, start_time, end_time, overall_feedback
		 FROM interviews WHERE id = ?`, string(id))
	return scanSession(row)
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	state, err := marshalState(session)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE interviews SET status = ?, current_state = ? WHERE id = ?`,
		string(session.Status), state, string(session.ID),
	)
	if err != nil {
		return fmt.Errorf("sqlite UpdateSession: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite UpdateSession: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) CompleteSession(ctx context.Context, session *domain.Session) error {
	state, err := marshalState(session)
	if err != nil {
		return err
	}

	var feedback sql.NullString
	if session.FinalFeedback != nil {
		raw, err := json.Marshal(session.FinalFeedback)
		if err != nil {
			return fmt.Errorf("marshal final feedback: %w", err)
		}
		feedback = sql.NullString{String: string(raw), Valid: true}
	}

	var endTime sql.NullString
	if session.CompletedAt != nil {
		endTime = sql.NullString{String: session.CompletedAt.UTC().Format(timeLayout), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE interviews SET status = ?, current_state = ?, end_time = ?, overall_feedback = ?
		 WHERE id = ?`,
		string(session.Status), state, endTime, feedback, string(session.ID),
	)
	if err != nil {
		return fmt.Errorf("sqlite CompleteSession: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite CompleteSession: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	q := `SELECT id, role, difficulty, topic, status, current_state, start_time, end_time, overall_feedback
	      FROM interviews ORDER BY start_time DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListSessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite ListSessions: %w", err)
	}
	return out, nil
}

func (s *Store) AppendQuestion(ctx context.Context, sessionID domain.SessionID, content string) (domain.QuestionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.QuestionRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interviews WHERE id = ?`, string(sessionID)).Scan(&exists); err != nil {
		return domain.QuestionRecord{}, fmt.Errorf("sqlite AppendQuestion: %w", err)
	}
	if exists == 0 {
		return domain.QuestionRecord{}, domain.ErrSessionNotFound
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ord), 0) + 1 FROM questions WHERE interview_id = ?`,
		string(sessionID)).Scan(&next); err != nil {
		return domain.QuestionRecord{}, fmt.Errorf("sqlite AppendQuestion: %w", err)
	}

	rec := domain.QuestionRecord{
		ID:        domain.QuestionID(uuid.NewString()),
		SessionID: sessionID,
		Content:   content,
		Order:     next,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO questions (id, interview_id, content, ord, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(rec.ID), string(sessionID), content, next, rec.CreatedAt.Format(timeLayout),
	); err != nil {
		return domain.QuestionRecord{}, fmt.Errorf("sqlite AppendQuestion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.QuestionRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *Store) AppendAnswer(ctx context.Context, sessionID domain.SessionID, content string, score *int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Only the latest question of the session may receive an answer.
	var questionID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM questions WHERE interview_id = ? ORDER BY ord DESC LIMIT 1`,
		string(sessionID)).Scan(&questionID)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("no question to answer")
	}
	if err != nil {
		return fmt.Errorf("sqlite AppendAnswer: %w", err)
	}

	var scoreVal sql.NullInt64
	if score != nil {
		scoreVal = sql.NullInt64{Int64: int64(*score), Valid: true}
	}

	// Re-answering the latest question overwrites the previous answer
	// so a retried turn converges instead of wedging.
	var answered int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM answers WHERE question_id = ?`, questionID).Scan(&answered); err != nil {
		return fmt.Errorf("sqlite AppendAnswer: %w", err)
	}
	if answered > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE answers SET content = ?, score = ? WHERE question_id = ?`,
			content, scoreVal, questionID,
		); err != nil {
			return fmt.Errorf("sqlite AppendAnswer: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, content, score, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), questionID, content, scoreVal, time.Now().UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("sqlite AppendAnswer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) MeanScore(ctx context.Context, sessionID domain.SessionID) (float64, error) {
	var mean float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(a.score), 0)
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 WHERE q.interview_id = ? AND a.score IS NOT NULL`,
		string(sessionID)).Scan(&mean)
	if err != nil {
		return 0, fmt.Errorf("sqlite MeanScore: %w", err)
	}
	return mean, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		id, role, difficulty, topic, status, stateRaw, startTime string

		endTime  sql.NullString
		feedback sql.NullString
	)

	err := row.Scan(&id, &role, &difficulty, &topic, &status, &stateRaw, &startTime, &endTime, &feedback)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite scan session: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, startTime)
	if err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}

	var state sessionState
	if err := json.Unmarshal([]byte(stateRaw), &state); err != nil {
		// A row without a readable state blob is rebuilt from scratch
		// (defensive recovery, not a normal path).
		fresh := domain.NewSession(domain.SessionID(id), role, domain.ParseDifficulty(difficulty), topic, createdAt)
		fresh.Status = domain.Status(status)
		return fresh, nil
	}

	session := &domain.Session{
		ID:                domain.SessionID(id),
		Role:              role,
		Topic:             topic,
		InitialDifficulty: state.InitialDifficulty,
		DynamicDifficulty: state.DynamicDifficulty,
		DifficultyHistory: state.DifficultyHistory,
		Stage:             state.Stage,
		QuestionCount:     state.QuestionCount,
		Profile:           state.Profile,
		NextFocus:         state.NextFocus,
		Log:               state.Log,
		Status:            domain.Status(status),
		CreatedAt:         createdAt,
	}

	if endTime.Valid {
		at, err := time.Parse(time.RFC3339Nano, endTime.String)
		if err == nil {
			session.CompletedAt = &at
		}
	}
	if feedback.Valid && feedback.String != "" {
		var fb domain.FinalFeedback
		if err := json.Unmarshal([]byte(feedback.String), &fb); err == nil {
			session.FinalFeedback = &fb
		}
	}

	return session, nil
}

func marshalState(session *domain.Session) (string, error) {
	raw, err := json.Marshal(sessionState{
		InitialDifficulty: session.InitialDifficulty,
		DynamicDifficulty: session.DynamicDifficulty,
		DifficultyHistory: session.DifficultyHistory,
		Stage:             session.Stage,
		QuestionCount:     session.QuestionCount,
		Profile:           session.Profile,
		NextFocus:         session.NextFocus,
		Log:               session.Log,
	})
	if err != nil {
		return "", fmt.Errorf("marshal session state: %w", err)
	}
	return string(raw), nil
}
