package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"docchat/internal/domain"
)

func openTestLog(t *testing.T) *SQLiteLog {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func TestAppendAndRecent(t *testing.T) {
	log := openTestLog(t)

	for i := 1; i <= 3; i++ {
		err := log.Append(domain.ChatTurn{
			Question:  fmt.Sprintf("question %d", i),
			Answer:    fmt.Sprintf("answer %d", i),
			Timestamp: time.Unix(int64(1700000000+i), 0),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	turns, err := log.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Question != "question 2" || turns[1].Question != "question 3" {
		t.Errorf("expected chronological order [2 3], got [%s %s]", turns[0].Question, turns[1].Question)
	}
}

func TestRecentEmptyLog(t *testing.T) {
	log := openTestLog(t)

	turns, err := log.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 0 {
		t.Errorf("expected no turns, got %d", len(turns))
	}
}

func TestRecentZero(t *testing.T) {
	log := openTestLog(t)

	if err := log.Append(domain.ChatTurn{Question: "q", Answer: "a"}); err != nil {
		t.Fatal(err)
	}

	turns, err := log.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if turns != nil {
		t.Errorf("expected nil for n=0, got %v", turns)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.Append(domain.ChatTurn{Question: "q", Answer: "a"}); err != nil {
		t.Fatal(err)
	}
	log.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	turns, err := reopened.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Question != "q" {
		t.Errorf("expected persisted turn, got %v", turns)
	}
}
