package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Apple", "apple"},
		{"  apple  ", "apple"},
		{"  APPLE", "apple"},
		{"straße", "straße"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := NormalizeWord(tc.in); got != tc.want {
			t.Errorf("NormalizeWord(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewDictionaryEntry(t *testing.T) {
	t.Parallel()
	content := json.RawMessage(`{"meaning":"a sweet red fruit","phonetic":"/ˈæp.əl/"}`)

	entry, err := NewDictionaryEntry("  Apple  ", content)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if entry.Word != "apple" {
		t.Errorf("Expected normalized word %q, got %q", "apple", entry.Word)
	}
	if entry.Meaning() != "a sweet red fruit" {
		t.Errorf("Expected meaning extracted from content, got %q", entry.Meaning())
	}

	if _, err := NewDictionaryEntry("   ", content); !errors.Is(err, ErrEntryWordEmpty) {
		t.Errorf("Expected error %v, got %v", ErrEntryWordEmpty, err)
	}
	if _, err := NewDictionaryEntry("apple", nil); !errors.Is(err, ErrEntryContentEmpty) {
		t.Errorf("Expected error %v, got %v", ErrEntryContentEmpty, err)
	}
	if _, err := NewDictionaryEntry("apple", json.RawMessage(`{not json`)); !errors.Is(err, ErrEntryContentInvalid) {
		t.Errorf("Expected error %v, got %v", ErrEntryContentInvalid, err)
	}
}

func TestDictionaryEntryMeaning(t *testing.T) {
	t.Parallel()
	entry := &DictionaryEntry{Content: json.RawMessage(`{"phonetic":"/x/"}`)}
	if got := entry.Meaning(); got != "" {
		t.Errorf("Expected empty meaning, got %q", got)
	}

	entry.Content = json.RawMessage(`[1,2,3]`)
	if got := entry.Meaning(); got != "" {
		t.Errorf("Expected empty meaning for non-object content, got %q", got)
	}
}
