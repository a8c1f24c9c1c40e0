package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewCollection(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	collection, err := NewCollection(userID, "  Travel Vocabulary  ", " words for my trip ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if collection.Name != "Travel Vocabulary" {
		t.Errorf("Expected trimmed name, got %q", collection.Name)
	}
	if collection.Description != "words for my trip" {
		t.Errorf("Expected trimmed description, got %q", collection.Description)
	}
	if collection.ItemCount != 0 {
		t.Errorf("Expected item count 0, got %d", collection.ItemCount)
	}

	if _, err := NewCollection(uuid.Nil, "Travel", ""); !errors.Is(err, ErrCollectionUserIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrCollectionUserIDEmpty, err)
	}
	if _, err := NewCollection(userID, "   ", ""); !errors.Is(err, ErrCollectionNameEmpty) {
		t.Errorf("Expected error %v, got %v", ErrCollectionNameEmpty, err)
	}
	long := strings.Repeat("x", MaxCollectionNameLength+1)
	if _, err := NewCollection(userID, long, ""); !errors.Is(err, ErrCollectionNameTooLong) {
		t.Errorf("Expected error %v, got %v", ErrCollectionNameTooLong, err)
	}
}

func TestCollectionRename(t *testing.T) {
	t.Parallel()
	collection, err := NewCollection(uuid.New(), "Old Name", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	before := collection.UpdatedAt

	if err := collection.Rename("  New Name  "); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if collection.Name != "New Name" {
		t.Errorf("Expected name %q, got %q", "New Name", collection.Name)
	}
	if collection.UpdatedAt.Before(before) {
		t.Error("Expected UpdatedAt to advance")
	}

	if err := collection.Rename(""); !errors.Is(err, ErrCollectionNameEmpty) {
		t.Errorf("Expected error %v, got %v", ErrCollectionNameEmpty, err)
	}
	if collection.Name != "New Name" {
		t.Errorf("Expected name unchanged after rejected rename, got %q", collection.Name)
	}
	if err := collection.Rename(strings.Repeat("y", MaxCollectionNameLength+1)); !errors.Is(err, ErrCollectionNameTooLong) {
		t.Errorf("Expected error %v, got %v", ErrCollectionNameTooLong, err)
	}
}

func TestCollectionValidate(t *testing.T) {
	t.Parallel()
	collection := &Collection{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Name:   "Valid",
	}
	if err := collection.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	collection.ItemCount = -1
	if err := collection.Validate(); !errors.Is(err, ErrNegativeItemCount) {
		t.Errorf("Expected error %v, got %v", ErrNegativeItemCount, err)
	}
}
