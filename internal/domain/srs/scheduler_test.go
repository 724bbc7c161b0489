package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-client/internal/domain"
)

func TestMapRatingToGrade(t *testing.T) {
	t.Parallel()

	s := NewScheduler()

	tests := []struct {
		rating domain.Rating
		want   Grade
	}{
		{domain.RatingKnown, GradeGood},
		{domain.RatingUnfamiliar, GradeHard},
		{domain.RatingUnknown, GradeAgain},
	}

	for _, tc := range tests {
		tc := tc
		assert.Equal(t, tc.want, s.MapRatingToGrade(tc.rating), "rating %s", tc.rating)
	}
}

func TestIsDue(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stability := 2.5
	difficulty := 5.0

	withDue := func(due time.Time) domain.CardSchedule {
		return domain.CardSchedule{
			State:      domain.CardStateReview,
			Due:        &due,
			Stability:  &stability,
			Difficulty: &difficulty,
		}
	}

	tests := []struct {
		name  string
		sched domain.CardSchedule
		want  bool
	}{
		{name: "new card is never due", sched: domain.NewCardSchedule(), want: false},
		{name: "due in the past", sched: withDue(now.Add(-time.Hour)), want: true},
		{name: "due exactly now counts as due", sched: withDue(now), want: true},
		{name: "due just after now does not", sched: withDue(now.Add(time.Millisecond)), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, s.IsDue(tc.sched, now))
		})
	}
}

func TestIsNewAndInitializeCard(t *testing.T) {
	t.Parallel()

	s := NewScheduler()

	sched := s.InitializeCard()
	assert.True(t, s.IsNew(sched))

	res, err := s.CalculateNextReview(sched, domain.RatingKnown, time.Now().UTC(), nil)
	require.NoError(t, err)
	assert.False(t, s.IsNew(res.Schedule))
}

func TestAlgorithmForCaching(t *testing.T) {
	t.Parallel()

	s := NewScheduler()

	t.Run("nil tuning resolves to a stable default instance", func(t *testing.T) {
		t.Parallel()

		first, err := s.AlgorithmFor(nil)
		require.NoError(t, err)
		second, err := s.AlgorithmFor(nil)
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("explicit defaults share the nil-tuning instance", func(t *testing.T) {
		t.Parallel()

		fromNil, err := s.AlgorithmFor(nil)
		require.NoError(t, err)

		explicit, err := s.AlgorithmFor(&domain.TuningParams{
			RequestRetention: 0.9,
			MaximumInterval:  36500,
			LearningSteps:    []string{"1m", "10m"},
			RelearningSteps:  []string{"10m"},
		})
		require.NoError(t, err)

		assert.Same(t, fromNil, explicit)
	})

	t.Run("structurally equal tunings share one instance", func(t *testing.T) {
		t.Parallel()

		a, err := s.AlgorithmFor(&domain.TuningParams{
			RequestRetention: 0.85,
			LearningSteps:    []string{"5m", "30m"},
		})
		require.NoError(t, err)

		// A freshly allocated but equal tuning must hit the same cache slot.
		b, err := s.AlgorithmFor(&domain.TuningParams{
			RequestRetention: 0.85,
			LearningSteps:    []string{" 5m", "30m "},
		})
		require.NoError(t, err)

		assert.Same(t, a, b)
	})

	t.Run("different tunings resolve to different instances", func(t *testing.T) {
		t.Parallel()

		a, err := s.AlgorithmFor(&domain.TuningParams{RequestRetention: 0.85})
		require.NoError(t, err)
		b, err := s.AlgorithmFor(&domain.TuningParams{RequestRetention: 0.92})
		require.NoError(t, err)

		assert.NotSame(t, a, b)
	})

	t.Run("malformed step tokens surface an error", func(t *testing.T) {
		t.Parallel()

		_, err := s.AlgorithmFor(&domain.TuningParams{LearningSteps: []string{"soon"}})
		assert.ErrorIs(t, err, ErrInvalidStepToken)
	})
}

func TestSchedulersDoNotShareCaches(t *testing.T) {
	t.Parallel()

	a, err := NewScheduler().AlgorithmFor(nil)
	require.NoError(t, err)
	b, err := NewScheduler().AlgorithmFor(nil)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestCalculateNextReviewUsesTuning(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stability := 20.0
	difficulty := 5.0
	last := now.Add(-18 * 24 * time.Hour)
	due := now
	in := domain.CardSchedule{
		State:      domain.CardStateReview,
		Due:        &due,
		Stability:  &stability,
		Difficulty: &difficulty,
		Reps:       8,
		LastReview: &last,
	}

	capped, err := s.CalculateNextReview(in, domain.RatingKnown, now,
		&domain.TuningParams{MaximumInterval: 30})
	require.NoError(t, err)
	uncapped, err := s.CalculateNextReview(in, domain.RatingKnown, now, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, capped.Schedule.ScheduledDays, 30)
	assert.True(t, capped.Schedule.Due.Before(*uncapped.Schedule.Due))
}
