package domain

import (
	"errors"
	"time"
)

// CardState identifies where a card sits in the scheduling state machine.
type CardState string

// Possible card states.
const (
	CardStateNew        CardState = "new"
	CardStateLearning   CardState = "learning"
	CardStateReview     CardState = "review"
	CardStateRelearning CardState = "relearning"
)

// Rating is the user-facing judgment of recall quality. It is a closed enum:
// every rating maps to an algorithm grade, there is no error path.
type Rating string

// Possible rating values.
const (
	RatingKnown      Rating = "known"
	RatingUnfamiliar Rating = "unfamiliar"
	RatingUnknown    Rating = "unknown"
)

// Schedule validation errors.
var (
	ErrInvalidCardState    = errors.New("invalid card state")
	ErrInvalidRating       = errors.New("invalid rating")
	ErrNewCardHasDue       = errors.New("a new card cannot have a due time")
	ErrNewCardHasReps      = errors.New("a new card cannot have reps or lapses")
	ErrNegativeCounter     = errors.New("schedule counters cannot be negative")
	ErrMissingReviewFields = errors.New("a reviewed card must carry due, stability and difficulty")
)

// CardSchedule is the per-card scheduling snapshot. It is mutated exclusively
// through the srs scheduler, which returns a new value rather than modifying
// the input.
type CardSchedule struct {
	State         CardState  `json:"state"`
	Due           *time.Time `json:"due"`
	Stability     *float64   `json:"stability"`
	Difficulty    *float64   `json:"difficulty"`
	ElapsedDays   int        `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	LastReview    *time.Time `json:"last_review"`
	LearningStep  int        `json:"learning_step"`
}

// NewCardSchedule returns the schedule of a card that has just entered study
// rotation: state new, no due time, zero counters.
func NewCardSchedule() CardSchedule {
	return CardSchedule{
		State:        CardStateNew,
		LearningStep: 0,
	}
}

// IsValidCardState reports whether s is a member of the state enum.
func IsValidCardState(s CardState) bool {
	switch s {
	case CardStateNew, CardStateLearning, CardStateReview, CardStateRelearning:
		return true
	default:
		return false
	}
}

// IsValidRating reports whether r is a member of the rating enum.
func IsValidRating(r Rating) bool {
	switch r {
	case RatingKnown, RatingUnfamiliar, RatingUnknown:
		return true
	default:
		return false
	}
}

// Validate checks the CardSchedule invariants.
// A new card has no due time and zero reps/lapses; a card that has been
// reviewed carries due, stability and difficulty.
func (s *CardSchedule) Validate() error {
	if !IsValidCardState(s.State) {
		return ErrInvalidCardState
	}

	if s.ElapsedDays < 0 || s.ScheduledDays < 0 || s.Reps < 0 || s.Lapses < 0 || s.LearningStep < 0 {
		return ErrNegativeCounter
	}

	if s.State == CardStateNew {
		if s.Due != nil {
			return ErrNewCardHasDue
		}
		if s.Reps != 0 || s.Lapses != 0 {
			return ErrNewCardHasReps
		}
		return nil
	}

	if s.Due == nil || s.Stability == nil || s.Difficulty == nil {
		return ErrMissingReviewFields
	}

	return nil
}

// Clone returns a deep copy of the schedule, so callers can hold the old and
// new snapshots side by side.
func (s CardSchedule) Clone() CardSchedule {
	out := s
	if s.Due != nil {
		d := *s.Due
		out.Due = &d
	}
	if s.Stability != nil {
		v := *s.Stability
		out.Stability = &v
	}
	if s.Difficulty != nil {
		v := *s.Difficulty
		out.Difficulty = &v
	}
	if s.LastReview != nil {
		lr := *s.LastReview
		out.LastReview = &lr
	}
	return out
}
