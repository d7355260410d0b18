package core

import (
	"errors"

	"initiative/pkg/domain"
)

// Outcome labels recorded by metrics recorders and tracers.
const (
	OutcomeOK                 = "ok"
	OutcomeNotFound           = "not_found"
	OutcomeNameAlreadyExists  = "name_already_exists"
	OutcomeMissingName        = "missing_name"
	OutcomeDataStoreFailed    = "data_store_failed"
	OutcomeJournalUnavailable = "journal_unavailable"
	OutcomeNothingToUndo      = "nothing_to_undo"
	OutcomeNothingToRedo      = "nothing_to_redo"
	OutcomeError              = "error"
)

var outcomes = []struct {
	target error
	label  string
}{
	{domain.ErrNotFound, OutcomeNotFound},
	{domain.ErrNameAlreadyExists, OutcomeNameAlreadyExists},
	{domain.ErrMissingName, OutcomeMissingName},
	{domain.ErrDataStoreFailed, OutcomeDataStoreFailed},
	{ErrJournalUnavailable, OutcomeJournalUnavailable},
	{ErrNothingToUndo, OutcomeNothingToUndo},
	{ErrNothingToRedo, OutcomeNothingToRedo},
}

// Outcome classifies an operation error by the repository failure it wraps.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	for _, o := range outcomes {
		if errors.Is(err, o.target) {
			return o.label
		}
	}
	return OutcomeError
}
