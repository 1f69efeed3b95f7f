package core

import (
	"fmt"
	"math"
	"strings"
)

// PenaltyType selects which part of a submission the length penalty counts.
type PenaltyType string

const (
	PenaltyAll          PenaltyType = "ALL"
	PenaltyOutputOnly   PenaltyType = "OUTPUT_ONLY"
	PenaltyThinkingOnly PenaltyType = "THINKING_ONLY"
)

// LengthPenalty configures the score deduction for overlong submissions.
//
// The penalty is 0 up to FreeBudget, PenaltyAtCap from MaxCap onwards, and
// PenaltyAtCap * ((count-FreeBudget)/(MaxCap-FreeBudget))^Exponent in between.
// An Exponent above 1 is lenient near FreeBudget and steep near MaxCap.
type LengthPenalty struct {
	FreeBudget   int         `json:"free_budget" yaml:"free_budget"`
	MaxCap       int         `json:"max_cap" yaml:"max_cap"`
	PenaltyAtCap float64     `json:"penalty_at_cap" yaml:"penalty_at_cap"`
	Exponent     float64     `json:"exponent" yaml:"exponent"`
	PenaltyType  PenaltyType `json:"penalty_type,omitempty" yaml:"penalty_type,omitempty"`

	// CountFn counts length units; nil means whitespace word count.
	CountFn CountFunc `json:"-" yaml:"-"`
}

// DefaultLengthPenalty returns word-based defaults.
func DefaultLengthPenalty() LengthPenalty {
	return LengthPenalty{
		FreeBudget:   6000,
		MaxCap:       8000,
		PenaltyAtCap: 0.5,
		Exponent:     1.6,
		PenaltyType:  PenaltyAll,
	}
}

// Validate checks the configuration ranges.
func (p LengthPenalty) Validate() error {
	if p.FreeBudget < 0 {
		return fmt.Errorf("%w: free_budget must be >= 0, got %d", ErrInvalidLengthPenalty, p.FreeBudget)
	}
	if p.MaxCap <= p.FreeBudget {
		return fmt.Errorf("%w: max_cap (%d) must exceed free_budget (%d)", ErrInvalidLengthPenalty, p.MaxCap, p.FreeBudget)
	}
	if p.PenaltyAtCap < 0 || p.PenaltyAtCap > 1 {
		return fmt.Errorf("%w: penalty_at_cap must be in [0, 1], got %g", ErrInvalidLengthPenalty, p.PenaltyAtCap)
	}
	if p.Exponent <= 0 {
		return fmt.Errorf("%w: exponent must be > 0, got %g", ErrInvalidLengthPenalty, p.Exponent)
	}
	switch p.PenaltyType {
	case "", PenaltyAll, PenaltyOutputOnly, PenaltyThinkingOnly:
	default:
		return fmt.Errorf("%w: unknown penalty_type %q", ErrInvalidLengthPenalty, p.PenaltyType)
	}
	return nil
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ComputeLengthPenalty returns the penalty in [0, PenaltyAtCap] for input.
func ComputeLengthPenalty(input GradeInput, cfg LengthPenalty) float64 {
	count := cfg.count(cfg.selectText(input))

	if count <= cfg.FreeBudget {
		return 0
	}
	if count >= cfg.MaxCap {
		return cfg.PenaltyAtCap
	}

	frac := float64(count-cfg.FreeBudget) / float64(cfg.MaxCap-cfg.FreeBudget)
	return cfg.PenaltyAtCap * math.Pow(frac, cfg.Exponent)
}

// ApplyLengthPenalty subtracts the penalty from the score, floored at 0.
// RawScore and the per-criterion report are left as they are.
func ApplyLengthPenalty(report EvaluationReport, penalty float64) EvaluationReport {
	report.Score = math.Max(0, report.Score-penalty)
	return report
}

func (p LengthPenalty) count(text string) int {
	if p.CountFn != nil {
		return p.CountFn(text)
	}
	return WordCount(text)
}

func (p LengthPenalty) selectText(input GradeInput) string {
	switch p.PenaltyType {
	case PenaltyOutputOnly:
		return input.Output
	case PenaltyThinkingOnly:
		return input.Thinking
	default:
		if input.Thinking == "" {
			return input.Output
		}
		return input.Thinking + "\n" + input.Output
	}
}
