package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DictionaryEntry-specific validation errors
var (
	// ErrEntryIDEmpty is returned when an entry ID is empty or nil.
	ErrEntryIDEmpty = errors.New("dictionary entry ID cannot be empty")

	// ErrEntryWordEmpty is returned when an entry's word form is empty.
	ErrEntryWordEmpty = errors.New("dictionary entry word cannot be empty")

	// ErrEntryContentEmpty is returned when an entry's content is empty.
	ErrEntryContentEmpty = errors.New("dictionary entry content cannot be empty")

	// ErrEntryContentInvalid is returned when an entry's content is not valid JSON.
	ErrEntryContentInvalid = errors.New("dictionary entry content must be valid JSON")
)

// DictionaryEntry is a global, deduplicated word record shared by all users.
// The word surface form is unique across the store and the content payload
// (definitions, examples, phonetics) is stored as a JSONB structure.
// Entries are immutable once created and are referenced, never owned, by
// review items and exam sections.
type DictionaryEntry struct {
	ID        uuid.UUID       `json:"id"`
	Word      string          `json:"word"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

// EntryContent is the expected shape of a DictionaryEntry content payload.
// Content is stored as raw JSON so additional fields survive round-trips.
type EntryContent struct {
	Meaning      string   `json:"meaning"`
	Phonetic     string   `json:"phonetic,omitempty"`
	PartOfSpeech string   `json:"part_of_speech,omitempty"`
	Sentences    []string `json:"sentences,omitempty"`
}

// NewDictionaryEntry creates a new DictionaryEntry for the given word form
// and content payload. The word is normalized to its lower-cased, trimmed
// form so lookups are case-insensitive. Returns an error if validation fails.
func NewDictionaryEntry(word string, content json.RawMessage) (*DictionaryEntry, error) {
	entry := &DictionaryEntry{
		ID:        uuid.New(),
		Word:      NormalizeWord(word),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// NormalizeWord returns the canonical form of a word surface form used for
// uniqueness and lookups.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Validate checks if the DictionaryEntry has valid data.
func (e *DictionaryEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEntryIDEmpty
	}

	if strings.TrimSpace(e.Word) == "" {
		return ErrEntryWordEmpty
	}

	if len(e.Content) == 0 {
		return ErrEntryContentEmpty
	}

	var js json.RawMessage
	if err := json.Unmarshal(e.Content, &js); err != nil {
		return ErrEntryContentInvalid
	}

	return nil
}

// Meaning extracts the meaning field from the content payload. Returns an
// empty string if the payload does not carry one; callers decide whether
// that is acceptable (exam generation requires it).
func (e *DictionaryEntry) Meaning() string {
	var content EntryContent
	if err := json.Unmarshal(e.Content, &content); err != nil {
		return ""
	}
	return content.Meaning
}
