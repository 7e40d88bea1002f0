package form

import (
	"context"
	"fmt"

	"recibi/internal/beneficiary"
)

// ResolutionState is the step reached while settling a minor's holder.
type ResolutionState int

const (
	// StateTentative: a holder id was found in the data, not yet confirmed.
	StateTentative ResolutionState = iota
	// StateConfirmed: the operator accepted the holder id.
	StateConfirmed
	// StateManual: the operator must type the holder id.
	StateManual
)

func (s ResolutionState) String() string {
	switch s {
	case StateTentative:
		return "tentative"
	case StateConfirmed:
		return "confirmed"
	case StateManual:
		return "manual"
	}
	return fmt.Sprintf("ResolutionState(%d)", int(s))
}

// GuardianResolution tracks how the holder id of a minor was obtained.
// It starts tentative when the data names a holder and manual otherwise.
type GuardianResolution struct {
	State    ResolutionState
	HolderID string
	// Suggested is the id found in the data, kept after a rejection.
	Suggested string
}

// NewGuardianResolution starts a resolution from the holder id in the data.
func NewGuardianResolution(suggested string) *GuardianResolution {
	id := beneficiary.NormalizeID(suggested)
	if id == "" {
		return &GuardianResolution{State: StateManual}
	}
	return &GuardianResolution{State: StateTentative, HolderID: id, Suggested: id}
}

// Confirm accepts the tentative id.
func (g *GuardianResolution) Confirm() {
	if g.State == StateTentative {
		g.State = StateConfirmed
	}
}

// Reject discards the tentative id and moves to manual entry.
func (g *GuardianResolution) Reject() {
	if g.State == StateTentative {
		g.State = StateManual
		g.HolderID = ""
	}
}

// Enter records a manually typed id. It reports false when id is blank.
func (g *GuardianResolution) Enter(id string) bool {
	if g.State != StateManual {
		return false
	}
	g.HolderID = beneficiary.NormalizeID(id)
	return g.HolderID != ""
}

// Resolved reports whether a usable holder id is available.
func (g *GuardianResolution) Resolved() bool {
	return g.HolderID != "" && (g.State == StateConfirmed || g.State == StateManual)
}

// Prompter asks the operator about a minor's holder.
type Prompter interface {
	// ConfirmHolder asks whether holderID, found in the data, is correct.
	ConfirmHolder(ctx context.Context, minor beneficiary.Record, holderID string) (bool, error)
	// AskHolder asks for the holder id. An empty answer cancels.
	AskHolder(ctx context.Context, minor beneficiary.Record) (string, error)
}

// FlagPrompter answers holder questions from command-line flags.
type FlagPrompter struct {
	// HolderID is used when the data has no holder or AcceptSuggested is false.
	HolderID string
	// AcceptSuggested confirms the holder found in the data.
	AcceptSuggested bool
}

// ConfirmHolder implements Prompter. An explicit HolderID that differs from
// the suggestion wins over AcceptSuggested.
func (p FlagPrompter) ConfirmHolder(_ context.Context, _ beneficiary.Record, holderID string) (bool, error) {
	explicit := beneficiary.NormalizeID(p.HolderID)
	if explicit != "" && explicit != holderID {
		return false, nil
	}
	return p.AcceptSuggested || explicit == holderID, nil
}

// AskHolder implements Prompter.
func (p FlagPrompter) AskHolder(_ context.Context, _ beneficiary.Record) (string, error) {
	return p.HolderID, nil
}
