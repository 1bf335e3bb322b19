package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docchat/config"
)

func TestOpenHistoryWarnsWithoutVerbose(t *testing.T) {
	dir := t.TempDir()

	// Occupy the history path with a directory so the log cannot open.
	if err := os.MkdirAll(config.HistoryDBPath(dir), 0755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	warnOut = &buf
	t.Cleanup(func() { warnOut = os.Stderr })

	log := openHistory(dir)
	if log != nil {
		log.Close()
		t.Fatal("expected no history store")
	}
	if !strings.Contains(buf.String(), "chat history unavailable") {
		t.Errorf("expected a visible warning, got %q", buf.String())
	}
}

func TestOpenHistorySucceeds(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	warnOut = &buf
	t.Cleanup(func() { warnOut = os.Stderr })

	log := openHistory(dir)
	if log == nil {
		t.Fatalf("expected a history store, warning: %q", buf.String())
	}
	defer log.Close()

	if buf.Len() > 0 {
		t.Errorf("unexpected warning: %q", buf.String())
	}
	if _, err := os.Stat(filepath.Join(dir, ".docchat", "history.db")); err != nil {
		t.Errorf("expected history database on disk: %v", err)
	}
}

func TestBuildEmbedderRejectsUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "carrier-pigeon"

	if _, err := buildEmbedder(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
