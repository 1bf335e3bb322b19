package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"docchat/internal/domain"
)

// SQLiteLog is an append-only chat turn log backed by SQLite. Turns are
// only ever inserted; the pipeline reads recent ones to give the chat
// model conversational context.
type SQLiteLog struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

func Open(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

func (l *SQLiteLog) Append(turn domain.ChatTurn) error {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := l.db.Exec(
		"INSERT INTO chat_turns (question, answer, created_at) VALUES (?, ?, ?)",
		turn.Question, turn.Answer, ts.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append chat turn: %w", err)
	}
	return nil
}

// Recent returns up to n turns in chronological order, oldest first.
func (l *SQLiteLog) Recent(n int) ([]domain.ChatTurn, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := l.db.Query(
		"SELECT question, answer, created_at FROM chat_turns ORDER BY id DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var turn domain.ChatTurn
		var ts int64
		if err := rows.Scan(&turn.Question, &turn.Answer, &ts); err != nil {
			return nil, err
		}
		turn.Timestamp = time.Unix(ts, 0)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; flip to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
