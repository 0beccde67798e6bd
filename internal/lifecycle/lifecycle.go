// Package lifecycle holds the archive and signing state machines shared by
// clients, projects and delivery notes.
package lifecycle

import (
	"errors"
	"fmt"
)

// State is the archive state of a record.
type State string

const (
	StateActive   State = "active"
	StateArchived State = "archived"
	StateDeleted  State = "deleted"
)

// Action is a lifecycle transition.
type Action string

const (
	ActionArchive    Action = "archive"
	ActionRestore    Action = "restore"
	ActionHardDelete Action = "hard_delete"
)

var (
	// ErrInvalidTransition is returned when an action does not apply to the current state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrSignedNote is returned when a signed delivery note would be deleted.
	ErrSignedNote = errors.New("cannot delete signed delivery note")
	// ErrMissingSignature is returned when signing without an asset.
	ErrMissingSignature = errors.New("signature asset required")
)

var allowedTransitions = map[State]map[Action]State{
	StateActive: {
		ActionArchive:    StateArchived,
		ActionHardDelete: StateDeleted,
	},
	StateArchived: {
		ActionRestore:    StateActive,
		ActionHardDelete: StateDeleted,
	},
}

// StateOf maps the archived flag to a state.
func StateOf(archived bool) State {
	if archived {
		return StateArchived
	}
	return StateActive
}

// Next returns the state reached by applying action to current.
func Next(current State, action Action) (State, error) {
	next, ok := allowedTransitions[current][action]
	if !ok {
		return current, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, current)
	}
	return next, nil
}

// Archived applies action to the archived flag and returns the new flag.
func Archived(archived bool, action Action) (bool, error) {
	next, err := Next(StateOf(archived), action)
	if err != nil {
		return archived, err
	}
	return next == StateArchived, nil
}

// CheckNoteDelete enforces that a signed delivery note is never hard-deleted.
func CheckNoteDelete(signed bool) error {
	if signed {
		return ErrSignedNote
	}
	return nil
}

// CheckSign validates a sign request. Signing an already signed note is allowed and
// replaces the previous signature; resigned reports that case.
func CheckSign(signed bool, assetSize int) (resigned bool, err error) {
	if assetSize <= 0 {
		return false, ErrMissingSignature
	}
	return signed, nil
}
