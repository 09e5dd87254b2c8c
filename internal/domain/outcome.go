package domain

import "strings"

// OutcomeKind tags the result of a transcript acquisition attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotAvailable
	OutcomeTransient
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotAvailable:
		return "not_available"
	case OutcomeTransient:
		return "transient_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one acquisition strategy, or of the whole chain.
type Outcome struct {
	Kind     OutcomeKind
	Text     string
	Reason   string
	Strategy string
}

// Success builds a successful outcome.
func Success(strategy, text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text, Strategy: strategy}
}

// NotAvailable builds an outcome for a video without usable captions.
func NotAvailable(strategy, reason string) Outcome {
	return Outcome{Kind: OutcomeNotAvailable, Reason: reason, Strategy: strategy}
}

// TransientError builds an outcome for a failure that may go away on retry.
func TransientError(strategy, reason string) Outcome {
	return Outcome{Kind: OutcomeTransient, Reason: reason, Strategy: strategy}
}

// OK reports whether the outcome carries text.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// CombineFailures folds failed strategy outcomes into one. Any transient
// failure makes the combined outcome transient.
func CombineFailures(outcomes []Outcome) Outcome {
	if len(outcomes) == 0 {
		return NotAvailable("", "no strategies attempted")
	}
	kind := OutcomeNotAvailable
	reasons := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Kind == OutcomeTransient {
			kind = OutcomeTransient
		}
		if o.Reason != "" {
			reasons = append(reasons, o.Strategy+": "+o.Reason)
		}
	}
	return Outcome{Kind: kind, Reason: strings.Join(reasons, "; ")}
}
