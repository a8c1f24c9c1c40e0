package progress

import (
	"time"

	"github.com/mquell/vocab-api/internal/domain"
)

// nextStatusOnSuccess returns the status after a correct attempt: one
// promotion up the ladder, stopping at Mastered. Archived is handled by the
// caller and never reaches here.
func nextStatusOnSuccess(current domain.ItemStatus) domain.ItemStatus {
	if current >= domain.ItemStatusMastered {
		return domain.ItemStatusMastered
	}
	return current + 1
}

// nextStatusOnFailure returns the status after an incorrect attempt: demote
// to Learning from any status above it, never below. A New item stays New.
func nextStatusOnFailure(current domain.ItemStatus) domain.ItemStatus {
	if current > domain.ItemStatusLearning {
		return domain.ItemStatusLearning
	}
	return current
}

// calculateAttempt applies one study attempt to a copy of the item.
//
// Every attempt increments StudyCount and exactly one of MatchCount or
// FailCount, and stamps LastReview. A successful attempt promotes one level
// and assigns the widened interval for the promotion depth; reaching
// Mastered clears the due date. A failed attempt demotes (per
// nextStatusOnFailure) and resets the interval to the shortest rung.
// ReviewCount increments once per promotion, independent of StudyCount.
func calculateAttempt(
	item *domain.ReviewItem,
	wasCorrect bool,
	now time.Time,
	params *Params,
) *domain.ReviewItem {
	next := item.Clone()
	next.StudyCount++
	next.LastReview = &now
	next.UpdatedAt = now

	if wasCorrect {
		next.MatchCount++
		promoted := nextStatusOnSuccess(item.Status)
		if promoted != item.Status {
			next.Status = promoted
			next.ReviewCount++
		}
		if next.Status == domain.ItemStatusMastered {
			next.NextDue = nil
		} else {
			due := now.Add(params.intervalForPromotion(int(next.Status)))
			next.NextDue = &due
		}
		return next
	}

	next.FailCount++
	next.Status = nextStatusOnFailure(item.Status)
	due := now.Add(params.resetInterval())
	next.NextDue = &due
	return next
}

// calculateArchive marks a copy of the item Archived and clears scheduling.
// Archived is terminal and reachable only through explicit user action.
func calculateArchive(item *domain.ReviewItem, now time.Time) *domain.ReviewItem {
	next := item.Clone()
	next.Status = domain.ItemStatusArchived
	next.NextDue = nil
	next.UpdatedAt = now
	return next
}
