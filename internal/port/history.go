package port

import "docchat/internal/domain"

// HistoryStore is the append-only chat turn log. The pipeline only reads
// recent turns to inform answer generation; it never rewrites history.
type HistoryStore interface {
	Append(turn domain.ChatTurn) error

	// Recent returns up to n turns in chronological order, oldest first.
	Recent(n int) ([]domain.ChatTurn, error)

	Close() error
}
