package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-client/internal/domain"
)

// Grade is the algorithm-native severity of a review outcome.
type Grade int

// Possible grades, ordered by increasing recall quality.
const (
	GradeAgain Grade = iota + 1
	GradeHard
	GradeGood
	GradeEasy
)

// String returns the lowercase name of the grade.
func (g Grade) String() string {
	switch g {
	case GradeAgain:
		return "again"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	default:
		return "unknown"
	}
}

// ReviewLog captures the before/after of a single review for audit and
// debugging. State, Due, Stability and Difficulty are the values prior to
// the review; ScheduledDays is the interval assigned by it.
type ReviewLog struct {
	Grade         Grade            `json:"grade"`
	State         domain.CardState `json:"state"`
	Due           *time.Time       `json:"due"`
	Stability     *float64         `json:"stability"`
	Difficulty    *float64         `json:"difficulty"`
	ElapsedDays   int              `json:"elapsed_days"`
	ScheduledDays int              `json:"scheduled_days"`
	ReviewedAt    time.Time        `json:"reviewed_at"`
}

// Result pairs the new schedule snapshot with the log entry for the review
// that produced it.
type Result struct {
	Schedule domain.CardSchedule
	Log      ReviewLog
}

// Tuning constants of the memory model. Stability is measured in days.
const (
	minStability  = 0.1
	minDifficulty = 1.0
	maxDifficulty = 10.0

	// stabilityGrowth scales how fast stability compounds on a successful
	// review; lapseStabilityFactor is the fraction retained after a lapse.
	stabilityGrowth      = 0.1
	hardInterpolation    = 0.5
	easyBonus            = 1.3
	lapseStabilityFactor = 0.3
)

var (
	initialStability  = map[Grade]float64{GradeAgain: 0.6, GradeHard: 1.2, GradeGood: 2.5, GradeEasy: 5.0}
	initialDifficulty = map[Grade]float64{GradeAgain: 7.5, GradeHard: 6.2, GradeGood: 5.0, GradeEasy: 3.8}
	difficultyDelta   = map[Grade]float64{GradeAgain: 1.6, GradeHard: 0.8, GradeGood: -0.2, GradeEasy: -0.6}
)

// Algorithm is a pure scheduling function bound to one resolved parameter
// set. It performs no I/O and never reads the wall clock; the reference time
// is always caller-supplied so results are reproducible.
type Algorithm struct {
	params Params
}

// NewAlgorithm creates an algorithm instance for the given parameters.
func NewAlgorithm(params Params) *Algorithm {
	return &Algorithm{params: params}
}

// Params returns the parameter set this instance was built with.
func (a *Algorithm) Params() Params {
	return a.params
}

// Apply computes the schedule following one review. The input snapshot is
// never mutated. For every grade the returned due time is strictly after
// now, and for a fixed input the assigned interval is monotonically
// non-decreasing in grade.
func (a *Algorithm) Apply(in domain.CardSchedule, grade Grade, now time.Time) Result {
	out := in.Clone()

	log := ReviewLog{
		Grade:       grade,
		State:       in.State,
		Due:         in.Due,
		Stability:   in.Stability,
		Difficulty:  in.Difficulty,
		ElapsedDays: elapsedWholeDays(in.LastReview, now),
		ReviewedAt:  now,
	}

	out.Reps++
	out.ElapsedDays = log.ElapsedDays
	reviewed := now
	out.LastReview = &reviewed

	switch in.State {
	case domain.CardStateNew:
		a.applyNew(&out, grade, now)
	case domain.CardStateLearning:
		a.applyLadder(&out, grade, now, domain.CardStateLearning, a.params.LearningSteps, in.LearningStep)
	case domain.CardStateRelearning:
		a.applyLadder(&out, grade, now, domain.CardStateRelearning, a.params.RelearningSteps, in.LearningStep)
	case domain.CardStateReview:
		a.applyReview(&out, in, grade, now)
	}

	log.ScheduledDays = out.ScheduledDays
	return Result{Schedule: out, Log: log}
}

// applyNew handles the first review of a card. The card enters the learning
// ladder when learning steps are configured; with zero steps it promotes
// straight to review. Answering wrong here is not a lapse.
func (a *Algorithm) applyNew(out *domain.CardSchedule, grade Grade, now time.Time) {
	d := clampDifficulty(initialDifficulty[grade])
	s := initialStability[grade]
	out.Difficulty = &d
	out.Stability = &s

	a.applyLadder(out, grade, now, domain.CardStateLearning, a.params.LearningSteps, 0)
}

// applyLadder advances a card through the learning or relearning ladder.
// Again restarts the ladder, hard repeats the current rung with a longer
// delay, good climbs one rung and promotes off the top, easy promotes
// immediately.
//
// The hard and good delays are clamped against each other so the assigned
// interval stays strictly increasing in grade even when a rung is longer
// than the interval a promotion would earn (day-scale step tokens make that
// crossover real).
func (a *Algorithm) applyLadder(
	out *domain.CardSchedule,
	grade Grade,
	now time.Time,
	state domain.CardState,
	steps []time.Duration,
	step int,
) {
	if len(steps) == 0 {
		a.promote(out, now)
		return
	}
	if step >= len(steps) {
		step = len(steps) - 1
	}

	restart := steps[0]
	hardDelay := steps[step] * 3 / 2
	if hardDelay <= restart {
		hardDelay = restart * 3 / 2
	}

	next := step + 1
	goodPromotes := next >= len(steps)
	goodDelay := a.promotionDelay(out)
	if !goodPromotes {
		goodDelay = steps[next]
	}
	if goodDelay <= hardDelay {
		goodDelay = hardDelay * 4 / 3
	}

	switch grade {
	case GradeAgain:
		enterStep(out, state, 0, restart, now)
	case GradeHard:
		enterStep(out, state, step, hardDelay, now)
	case GradeGood:
		if goodPromotes {
			a.promoteWithFloor(out, now, goodDelay)
		} else {
			enterStep(out, state, next, goodDelay, now)
		}
	case GradeEasy:
		if out.Stability != nil {
			boosted := *out.Stability * easyBonus
			out.Stability = &boosted
		}
		a.promoteWithFloor(out, now, goodDelay*13/10)
	}
}

// applyReview handles a card in long-term review. A forgetting grade is the
// one lapse-incrementing transition and demotes the card into relearning;
// everything else grows stability and therefore the interval.
func (a *Algorithm) applyReview(out *domain.CardSchedule, in domain.CardSchedule, grade Grade, now time.Time) {
	s := minStability
	if in.Stability != nil {
		s = math.Max(minStability, *in.Stability)
	}
	d := 5.0
	if in.Difficulty != nil {
		d = *in.Difficulty
	}

	newD := clampDifficulty(d + difficultyDelta[grade])
	out.Difficulty = &newD

	if grade == GradeAgain {
		out.Lapses++
		lapsed := math.Max(minStability, s*lapseStabilityFactor)
		out.Stability = &lapsed

		steps := a.params.RelearningSteps
		if len(steps) == 0 {
			a.schedule(out, lapsed, now)
			out.State = domain.CardStateRelearning
			return
		}
		enterStep(out, domain.CardStateRelearning, 0, steps[0], now)
		return
	}

	r := a.retrievability(in, s, now)

	// Good stability strictly exceeds s; hard lands strictly between the
	// two and easy strictly above, preserving interval ordering by grade.
	goodS := s * (1 + stabilityGrowth*(maxDifficulty+1-newD)*math.Exp(1-r))

	var newS float64
	switch grade {
	case GradeHard:
		newS = s + (goodS-s)*hardInterpolation
	case GradeGood:
		newS = goodS
	case GradeEasy:
		newS = goodS * easyBonus
	}

	out.Stability = &newS
	a.schedule(out, newS, now)
}

// promote moves a card into the review state and schedules it from its
// current stability. The learning step resets on every promotion.
func (a *Algorithm) promote(out *domain.CardSchedule, now time.Time) {
	a.promoteWithFloor(out, now, 0)
}

// promoteWithFloor promotes like promote but never schedules earlier than
// the floor, keeping the promoted interval ahead of the ladder delays the
// worse grades were assigned.
func (a *Algorithm) promoteWithFloor(out *domain.CardSchedule, now time.Time, floor time.Duration) {
	s := minStability
	if out.Stability != nil {
		s = math.Max(minStability, *out.Stability)
	}

	days := a.intervalDays(s)
	if f := daysFromDuration(floor); days < f {
		days = f
	}
	a.scheduleDays(out, days, now)
}

// promotionDelay is the interval a promotion from the current stability
// would assign.
func (a *Algorithm) promotionDelay(out *domain.CardSchedule) time.Duration {
	s := minStability
	if out.Stability != nil {
		s = math.Max(minStability, *out.Stability)
	}
	return durationFromDays(a.intervalDays(s))
}

// schedule assigns the review-state due time derived from stability and the
// requested retention, capped at the configured maximum interval.
func (a *Algorithm) schedule(out *domain.CardSchedule, stability float64, now time.Time) {
	a.scheduleDays(out, a.intervalDays(stability), now)
}

// scheduleDays places the card in review state, due after the given number
// of fractional days.
func (a *Algorithm) scheduleDays(out *domain.CardSchedule, days float64, now time.Time) {
	due := now.Add(durationFromDays(days))
	out.State = domain.CardStateReview
	out.LearningStep = 0
	out.Due = &due
	out.ScheduledDays = int(math.Round(days))
}

// intervalDays converts stability into the interval for the configured
// retention target, capped at the maximum interval.
func (a *Algorithm) intervalDays(stability float64) float64 {
	days := stability * a.retentionFactor()
	if limit := float64(a.params.MaximumInterval); days > limit {
		days = limit
	}
	if days < minStability {
		days = minStability
	}
	return days
}

// retentionFactor converts stability into an interval for the configured
// retention target. At 0.9 the interval equals the stability; higher targets
// shorten it, lower targets stretch it.
func (a *Algorithm) retentionFactor() float64 {
	return math.Log(a.params.RequestRetention) / math.Log(0.9)
}

// retrievability estimates the probability that the card is still recalled
// at the reference time, given its stability and the elapsed time since the
// last review.
func (a *Algorithm) retrievability(in domain.CardSchedule, stability float64, now time.Time) float64 {
	if in.LastReview == nil {
		return 0.9
	}
	elapsed := now.Sub(*in.LastReview).Hours() / 24
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Exp(math.Log(0.9) * elapsed / stability)
}

// enterStep places a card on a learning/relearning rung with an intra-day
// delay. Step delays never count toward ScheduledDays.
func enterStep(out *domain.CardSchedule, state domain.CardState, step int, delay time.Duration, now time.Time) {
	due := now.Add(delay)
	out.State = state
	out.LearningStep = step
	out.Due = &due
	out.ScheduledDays = 0
}

// elapsedWholeDays returns the whole days between the last review and now,
// clamped at zero.
func elapsedWholeDays(lastReview *time.Time, now time.Time) int {
	if lastReview == nil {
		return 0
	}
	days := int(now.Sub(*lastReview).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// clampDifficulty keeps difficulty inside its model range.
func clampDifficulty(d float64) float64 {
	if d < minDifficulty {
		return minDifficulty
	}
	if d > maxDifficulty {
		return maxDifficulty
	}
	return d
}

// durationFromDays converts a fractional day count into a duration.
func durationFromDays(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}

// daysFromDuration converts a duration into a fractional day count.
func daysFromDuration(d time.Duration) float64 {
	return float64(d) / float64(24*time.Hour)
}
