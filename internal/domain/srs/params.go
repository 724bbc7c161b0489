package srs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/scry-client/internal/domain"
)

// Step token parsing errors. Tuning parameters are validated at the
// configuration boundary; these errors surface only when a caller bypasses
// that boundary with a malformed token.
var (
	ErrEmptyStepToken   = errors.New("learning step token cannot be empty")
	ErrInvalidStepToken = errors.New("learning step token must be <positive integer><m|h|d>")
)

// Params holds the algorithm-native configuration resolved from a deck's
// tuning override, with step tokens parsed into durations.
type Params struct {
	// RequestRetention is the target probability of recall at review time.
	RequestRetention float64

	// MaximumInterval caps the scheduled interval, in days.
	MaximumInterval int

	// LearningSteps are the intra-day delays a new card walks through before
	// promotion into the review state.
	LearningSteps []time.Duration

	// RelearningSteps are the delays a lapsed card walks through before
	// returning to the review state.
	RelearningSteps []time.Duration
}

// DefaultParams returns the algorithm configuration used when a deck carries
// no tuning override.
func DefaultParams() Params {
	return Params{
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
	}
}

// defaultTuning mirrors DefaultParams as raw tuning values. Partial overrides
// are filled from it before canonicalization so that structurally equal
// tunings always canonicalize identically.
func defaultTuning() domain.TuningParams {
	return domain.TuningParams{
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		LearningSteps:    []string{"1m", "10m"},
		RelearningSteps:  []string{"10m"},
	}
}

// ParseLearningSteps splits a comma-separated step list into its tokens,
// trimming surrounding whitespace and preserving order. It does not validate
// token syntax; that is the configuration boundary's job.
func ParseLearningSteps(raw string) []string {
	parts := strings.Split(raw, ",")
	steps := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		steps = append(steps, p)
	}
	return steps
}

// ParseStepToken converts a single "<positive integer><m|h|d>" token into a
// duration.
func ParseStepToken(token string) (time.Duration, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrEmptyStepToken
	}

	unit := token[len(token)-1]
	value, err := strconv.Atoi(token[:len(token)-1])
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStepToken, token)
	}

	switch unit {
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStepToken, token)
	}
}

// parseStepTokens converts a token list into durations.
func parseStepTokens(tokens []string) ([]time.Duration, error) {
	out := make([]time.Duration, 0, len(tokens))
	for _, t := range tokens {
		d, err := ParseStepToken(t)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// resolveTuning fills the zero-valued fields of a tuning override from the
// defaults, so partially specified overrides behave predictably and
// canonicalize deterministically.
func resolveTuning(tuning *domain.TuningParams) domain.TuningParams {
	resolved := defaultTuning()
	if tuning == nil {
		return resolved
	}

	if tuning.RequestRetention != 0 {
		resolved.RequestRetention = tuning.RequestRetention
	}
	if tuning.MaximumInterval != 0 {
		resolved.MaximumInterval = tuning.MaximumInterval
	}
	if tuning.LearningSteps != nil {
		resolved.LearningSteps = tuning.LearningSteps
	}
	if tuning.RelearningSteps != nil {
		resolved.RelearningSteps = tuning.RelearningSteps
	}
	return resolved
}

// paramsFromTuning builds algorithm-native params from resolved tuning
// values. Step tokens are normalized (trimmed) before parsing.
func paramsFromTuning(tuning domain.TuningParams) (Params, error) {
	learning, err := parseStepTokens(normalizeSteps(tuning.LearningSteps))
	if err != nil {
		return Params{}, fmt.Errorf("learning steps: %w", err)
	}

	relearning, err := parseStepTokens(normalizeSteps(tuning.RelearningSteps))
	if err != nil {
		return Params{}, fmt.Errorf("relearning steps: %w", err)
	}

	return Params{
		RequestRetention: tuning.RequestRetention,
		MaximumInterval:  tuning.MaximumInterval,
		LearningSteps:    learning,
		RelearningSteps:  relearning,
	}, nil
}

// normalizeSteps trims each token, dropping empties, without reordering.
func normalizeSteps(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// canonicalKey renders resolved tuning values as a canonical cache key.
// Field order is fixed and steps are joined in sequence, so two structurally
// equal tunings always produce the same key regardless of how their values
// were assembled.
func canonicalKey(tuning domain.TuningParams) string {
	return fmt.Sprintf("rr=%.4f;mi=%d;ls=%s;rs=%s",
		tuning.RequestRetention,
		tuning.MaximumInterval,
		strings.Join(normalizeSteps(tuning.LearningSteps), ","),
		strings.Join(normalizeSteps(tuning.RelearningSteps), ","),
	)
}
