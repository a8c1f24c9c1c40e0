package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
)

func newTestItem(status domain.ItemStatus) *domain.ReviewItem {
	return &domain.ReviewItem{
		ID:           uuid.New(),
		CollectionID: uuid.New(),
		UserID:       uuid.New(),
		EntryID:      uuid.New(),
		Status:       status,
	}
}

func TestRecordAttemptPromotion(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	svc := NewDefaultService()

	tests := []struct {
		name         string
		from         domain.ItemStatus
		wantStatus   domain.ItemStatus
		wantInterval time.Duration
		wantNoDue    bool
	}{
		{"new promotes to learning", domain.ItemStatusNew, domain.ItemStatusLearning, 24 * time.Hour, false},
		{"learning promotes to reviewing", domain.ItemStatusLearning, domain.ItemStatusReviewing, 72 * time.Hour, false},
		{"reviewing promotes to mastered", domain.ItemStatusReviewing, domain.ItemStatusMastered, 0, true},
		{"mastered stays mastered", domain.ItemStatusMastered, domain.ItemStatusMastered, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := newTestItem(tc.from)

			next, err := svc.RecordAttempt(item, true, now)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if next.Status != tc.wantStatus {
				t.Errorf("Expected status %s, got %s", tc.wantStatus, next.Status)
			}
			if next.StudyCount != 1 {
				t.Errorf("Expected study count 1, got %d", next.StudyCount)
			}
			if next.MatchCount != 1 {
				t.Errorf("Expected match count 1, got %d", next.MatchCount)
			}
			if next.FailCount != 0 {
				t.Errorf("Expected fail count 0, got %d", next.FailCount)
			}
			if next.LastReview == nil || !next.LastReview.Equal(now) {
				t.Errorf("Expected last review %v, got %v", now, next.LastReview)
			}

			if tc.wantNoDue {
				if next.NextDue != nil {
					t.Errorf("Expected no due date, got %v", next.NextDue)
				}
			} else {
				want := now.Add(tc.wantInterval)
				if next.NextDue == nil || !next.NextDue.Equal(want) {
					t.Errorf("Expected due %v, got %v", want, next.NextDue)
				}
			}

			// ReviewCount tracks promotions, not attempts.
			if tc.from == tc.wantStatus {
				if next.ReviewCount != 0 {
					t.Errorf("Expected review count 0 without promotion, got %d", next.ReviewCount)
				}
			} else if next.ReviewCount != 1 {
				t.Errorf("Expected review count 1 after promotion, got %d", next.ReviewCount)
			}

			// The input item is never mutated.
			if item.StudyCount != 0 || item.Status != tc.from {
				t.Error("Expected the input item to be unchanged")
			}
		})
	}
}

func TestRecordAttemptDemotion(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	svc := NewDefaultService()

	tests := []struct {
		name       string
		from       domain.ItemStatus
		wantStatus domain.ItemStatus
	}{
		{"new stays new", domain.ItemStatusNew, domain.ItemStatusNew},
		{"learning stays learning", domain.ItemStatusLearning, domain.ItemStatusLearning},
		{"reviewing demotes to learning", domain.ItemStatusReviewing, domain.ItemStatusLearning},
		{"mastered demotes to learning", domain.ItemStatusMastered, domain.ItemStatusLearning},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := newTestItem(tc.from)

			next, err := svc.RecordAttempt(item, false, now)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if next.Status != tc.wantStatus {
				t.Errorf("Expected status %s, got %s", tc.wantStatus, next.Status)
			}
			if next.FailCount != 1 {
				t.Errorf("Expected fail count 1, got %d", next.FailCount)
			}
			if next.MatchCount != 0 {
				t.Errorf("Expected match count 0, got %d", next.MatchCount)
			}
			if next.ReviewCount != 0 {
				t.Errorf("Expected review count unchanged, got %d", next.ReviewCount)
			}

			// Failure always resets to the shortest interval.
			want := now.Add(24 * time.Hour)
			if next.NextDue == nil || !next.NextDue.Equal(want) {
				t.Errorf("Expected due %v, got %v", want, next.NextDue)
			}
		})
	}
}

func TestRecordAttemptArchived(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	if _, err := svc.RecordAttempt(newTestItem(domain.ItemStatusArchived), true, time.Now()); !errors.Is(err, ErrItemArchived) {
		t.Errorf("Expected error %v, got %v", ErrItemArchived, err)
	}
	if _, err := svc.RecordAttempt(nil, true, time.Now()); !errors.Is(err, ErrNilItem) {
		t.Errorf("Expected error %v, got %v", ErrNilItem, err)
	}
}

func TestArchive(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	svc := NewDefaultService()

	item := newTestItem(domain.ItemStatusReviewing)
	due := now.Add(time.Hour)
	item.NextDue = &due

	archived, err := svc.Archive(item, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if archived.Status != domain.ItemStatusArchived {
		t.Errorf("Expected status %s, got %s", domain.ItemStatusArchived, archived.Status)
	}
	if archived.NextDue != nil {
		t.Errorf("Expected cleared due date, got %v", archived.NextDue)
	}
	if item.Status != domain.ItemStatusReviewing {
		t.Error("Expected the input item to be unchanged")
	}

	if _, err := svc.Archive(nil, now); !errors.Is(err, ErrNilItem) {
		t.Errorf("Expected error %v, got %v", ErrNilItem, err)
	}
}

func TestCustomIntervalLadder(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	svc := NewServiceWithParams(NewParams(ParamsConfig{
		IntervalLadder: []time.Duration{time.Hour, 2 * time.Hour},
	}))

	next, err := svc.RecordAttempt(newTestItem(domain.ItemStatusNew), true, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := now.Add(time.Hour)
	if next.NextDue == nil || !next.NextDue.Equal(want) {
		t.Errorf("Expected due %v, got %v", want, next.NextDue)
	}

	next, err = svc.RecordAttempt(next, true, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want = now.Add(2 * time.Hour)
	if next.NextDue == nil || !next.NextDue.Equal(want) {
		t.Errorf("Expected due %v, got %v", want, next.NextDue)
	}
}

func TestNewParams(t *testing.T) {
	t.Parallel()
	// Empty config keeps defaults.
	params := NewParams(ParamsConfig{})
	if len(params.IntervalLadder) != 3 || params.IntervalLadder[0] != 24*time.Hour {
		t.Errorf("Expected default ladder, got %v", params.IntervalLadder)
	}

	// Non-positive entries invalidate the whole override.
	params = NewParams(ParamsConfig{IntervalLadder: []time.Duration{time.Hour, -time.Hour}})
	if params.IntervalLadder[0] != 24*time.Hour {
		t.Errorf("Expected default ladder after invalid override, got %v", params.IntervalLadder)
	}

	// Promotions past the ladder clamp to the last rung.
	params = NewParams(ParamsConfig{IntervalLadder: []time.Duration{time.Hour}})
	if got := params.intervalForPromotion(5); got != time.Hour {
		t.Errorf("Expected clamped interval %v, got %v", time.Hour, got)
	}
	if got := params.intervalForPromotion(0); got != time.Hour {
		t.Errorf("Expected floored interval %v, got %v", time.Hour, got)
	}
}
