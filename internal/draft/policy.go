package draft

import (
	"context"
	"fmt"
	"strings"
)

// Policy decides what happens to an existing draft when a form opens.
type Policy string

const (
	// PolicyPrompt asks before restoring and discards the draft on decline.
	PolicyPrompt Policy = "prompt"
	// PolicyAuto restores without asking.
	PolicyAuto Policy = "auto"
)

// ParsePolicy parses a policy name. The empty string is PolicyPrompt.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPrompt:
		return PolicyPrompt, nil
	case PolicyAuto:
		return PolicyAuto, nil
	default:
		return "", fmt.Errorf("unknown restore policy %q (want prompt or auto)", s)
	}
}

// Outcome is the result of offering a draft for restore.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSkipped
	OutcomeRestored
	OutcomeDiscarded
	OutcomeUnanswered
)

// Confirm asks whether to restore. ok is false when no answer could be read.
type Confirm func() (restore, ok bool)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRestored:
		return "restored"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeUnanswered:
		return "unanswered"
	default:
		return "none"
	}
}

// Offer applies policy to the saver's existing draft. A form that already
// holds user input is never overwritten. With PolicyPrompt, confirm is asked
// and a declined draft is cleared. A nil confirm, or one that gets no answer,
// leaves the draft in place.
func (s *AutoSaver) Offer(ctx context.Context, policy Policy, formEmpty bool, confirm Confirm) (any, Outcome) {
	if !s.State().HasDraft && !s.CheckForExisting(ctx) {
		return nil, OutcomeNone
	}
	if !formEmpty {
		return nil, OutcomeSkipped
	}

	if policy != PolicyAuto {
		if confirm == nil {
			return nil, OutcomeUnanswered
		}
		restore, ok := confirm()
		if !ok {
			return nil, OutcomeUnanswered
		}
		if !restore {
			_ = s.Clear(ctx)
			return nil, OutcomeDiscarded
		}
	}

	payload, ok := s.Restore(ctx)
	if !ok {
		return nil, OutcomeNone
	}
	return payload, OutcomeRestored
}

// IsBlank reports whether decoded form data holds no user input: nil, empty
// strings, zero numbers, false, and containers holding only blank values.
func IsBlank(payload any) bool {
	switch v := payload.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case map[string]any:
		for _, child := range v {
			if !IsBlank(child) {
				return false
			}
		}
		return true
	case []any:
		for _, child := range v {
			if !IsBlank(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
