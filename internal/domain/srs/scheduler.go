package srs

import (
	"fmt"
	"sync"
	"time"

	"github.com/phrazzld/scry-client/internal/domain"
)

// Scheduler owns the rating-to-grade mapping, the due/new predicates, and a
// memoizing cache of algorithm instances keyed by canonicalized deck tuning.
// Each Scheduler owns its own cache, so concurrent configurations in one
// process never interfere and tests never leak state into each other.
//
// The cache is unbounded for the scheduler's lifetime: growth is bounded by
// the number of distinct tuning configurations in use, not by call volume.
type Scheduler struct {
	mu    sync.Mutex
	cache map[string]*Algorithm
}

// NewScheduler creates a scheduler with an empty algorithm cache.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cache: make(map[string]*Algorithm),
	}
}

// MapRatingToGrade converts a user-facing rating into its algorithm grade.
// Rating is a closed enum, so this is a total function with no error path.
func (s *Scheduler) MapRatingToGrade(rating domain.Rating) Grade {
	switch rating {
	case domain.RatingKnown:
		return GradeGood
	case domain.RatingUnfamiliar:
		return GradeHard
	default:
		return GradeAgain
	}
}

// InitializeCard returns the schedule of a card entering study rotation.
func (s *Scheduler) InitializeCard() domain.CardSchedule {
	return domain.NewCardSchedule()
}

// IsNew reports whether the card has never been reviewed.
func (s *Scheduler) IsNew(sched domain.CardSchedule) bool {
	return sched.State == domain.CardStateNew
}

// IsDue reports whether the card should be shown at the reference time.
// A new card is never due; otherwise due exactly at now counts as due.
func (s *Scheduler) IsDue(sched domain.CardSchedule, now time.Time) bool {
	if sched.State == domain.CardStateNew || sched.Due == nil {
		return false
	}
	return !sched.Due.After(now)
}

// CalculateNextReview maps the rating to a grade, resolves the algorithm
// instance for the deck's tuning, and applies it. Side-effect-free: the
// input schedule is not mutated and nothing is persisted.
func (s *Scheduler) CalculateNextReview(
	sched domain.CardSchedule,
	rating domain.Rating,
	now time.Time,
	tuning *domain.TuningParams,
) (Result, error) {
	alg, err := s.AlgorithmFor(tuning)
	if err != nil {
		return Result{}, err
	}
	return alg.Apply(sched, s.MapRatingToGrade(rating), now), nil
}

// AlgorithmFor resolves the algorithm instance for a tuning override,
// memoized by canonical configuration key. Structurally equal tunings
// resolve to the same instance, so callers can detect "no config change" by
// pointer equality. A nil tuning resolves to a stable default instance.
func (s *Scheduler) AlgorithmFor(tuning *domain.TuningParams) (*Algorithm, error) {
	resolved := resolveTuning(tuning)
	key := canonicalKey(resolved)

	s.mu.Lock()
	defer s.mu.Unlock()

	if alg, ok := s.cache[key]; ok {
		return alg, nil
	}

	params, err := paramsFromTuning(resolved)
	if err != nil {
		return nil, fmt.Errorf("resolving tuning params: %w", err)
	}

	alg := NewAlgorithm(params)
	s.cache[key] = alg
	return alg, nil
}
