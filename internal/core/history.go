package core

import (
	"context"
	"errors"
	"fmt"

	"initiative/pkg/domain"
)

var (
	// ErrNothingToUndo is returned by Undo when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History layers undo and redo stacks over Repository.Modify. Each stack
// holds inverses: applying the top of the undo stack reverses the most recent
// mutation.
type History struct {
	repo *Repository
	undo []domain.Change
	redo []domain.Change
}

// NewHistory returns an empty history bound to repo.
func NewHistory(repo *Repository) *History {
	return &History{repo: repo}
}

// Apply runs change and records its inverse. A new mutation invalidates the
// redo stack.
func (h *History) Apply(ctx context.Context, change domain.Change) (domain.ID, error) {
	inverse, err := h.repo.Modify(ctx, change)
	if err != nil {
		return domain.ID{}, fmt.Errorf("%s: %w", change.Describe(), err)
	}
	h.undo = append(h.undo, inverse)
	h.redo = nil
	return domain.AffectedID(inverse), nil
}

// Undo reverses the most recent mutation and returns the ID of the thing it
// touched. A change that fails to apply is dropped from both stacks.
func (h *History) Undo(ctx context.Context) (domain.ID, error) {
	change, ok := pop(&h.undo)
	if !ok {
		return domain.ID{}, ErrNothingToUndo
	}
	inverse, err := h.repo.Modify(ctx, change)
	if err != nil {
		return domain.ID{}, fmt.Errorf("undo %s: %w", change.Describe(), err)
	}
	h.redo = append(h.redo, inverse)
	return domain.AffectedID(inverse), nil
}

// Redo reapplies the most recently undone mutation.
func (h *History) Redo(ctx context.Context) (domain.ID, error) {
	change, ok := pop(&h.redo)
	if !ok {
		return domain.ID{}, ErrNothingToRedo
	}
	inverse, err := h.repo.Modify(ctx, change)
	if err != nil {
		return domain.ID{}, fmt.Errorf("redo %s: %w", change.Describe(), err)
	}
	h.undo = append(h.undo, inverse)
	return domain.AffectedID(inverse), nil
}

// UndoHistory returns the undo stack, most recent first.
func (h *History) UndoHistory() []domain.Change {
	out := make([]domain.Change, len(h.undo))
	for i, change := range h.undo {
		out[len(h.undo)-1-i] = change
	}
	return out
}

// PeekUndo returns the change the next Undo would apply.
func (h *History) PeekUndo() (domain.Change, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	return h.undo[len(h.undo)-1], true
}

// PeekRedo returns the change the next Redo would apply.
func (h *History) PeekRedo() (domain.Change, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	return h.redo[len(h.redo)-1], true
}

func pop(stack *[]domain.Change) (domain.Change, bool) {
	s := *stack
	if len(s) == 0 {
		return nil, false
	}
	change := s[len(s)-1]
	s[len(s)-1] = nil
	*stack = s[:len(s)-1]
	return change, true
}
