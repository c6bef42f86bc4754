package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	content := `
Payment:
  - payment
  - invoice
Debt:
  - debt
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write topics: %v", err)
	}

	topics, err := LoadTopics(path)
	if err != nil {
		t.Fatalf("load topics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	if len(topics["Payment"]) != 2 || topics["Payment"][0] != "payment" {
		t.Fatalf("unexpected payment keywords: %v", topics["Payment"])
	}
}

func TestLoadTopicsMissingFile(t *testing.T) {
	topics, err := LoadTopics(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if topics != nil {
		t.Fatalf("expected nil topics, got %v", topics)
	}
}

func TestLoadTopicsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("write topics: %v", err)
	}

	if _, err := LoadTopics(path); err == nil {
		t.Fatalf("expected parse error for malformed yaml")
	}
}
