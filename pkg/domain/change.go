package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type idKind uint8

const (
	idName idKind = iota
	idUUID
)

// ID is a lookup key: either a lowercased name or a persisted identity.
// IDs are comparable values.
type ID struct {
	kind idKind
	name string
	uuid uuid.UUID
}

// NameID builds a name key. The name is lowercased so comparisons are
// case-insensitive.
func NameID(name string) ID {
	return ID{kind: idName, name: strings.ToLower(name)}
}

// UUIDID builds an identity key.
func UUIDID(id uuid.UUID) ID {
	return ID{kind: idUUID, uuid: id}
}

// Name returns the lowercased name and whether the ID is a name key.
func (id ID) Name() (string, bool) {
	return id.name, id.kind == idName
}

// UUID returns the identity and whether the ID is an identity key.
func (id ID) UUID() (uuid.UUID, bool) {
	return id.uuid, id.kind == idUUID
}

func (id ID) String() string {
	if id.kind == idUUID {
		return id.uuid.String()
	}
	return id.name
}

// Change is a self-describing mutation. Applying a Change through the
// repository yields another Change that reverses it. The set of variants is
// closed: Create, CreateAndSave, Delete, Save and Unsave.
type Change interface {
	change()
	// Describe renders the change for undo/redo summaries.
	Describe() string
}

// Create inserts a thing into the ephemeral tier.
//
// Inverse: Delete{ID: NameID(name)}.
type Create struct {
	Thing Thing
}

// CreateAndSave inserts a thing directly into the persisted tier, assigning a
// fresh identity.
//
// Inverse: Delete{ID: UUIDID(identity)}.
type CreateAndSave struct {
	Thing Thing
}

// Delete removes a thing from whichever tier holds it.
//
// Inverse: CreateAndSave when the thing was persisted, Create otherwise.
type Delete struct {
	ID ID
}

// Save moves an ephemeral thing into the persisted tier.
//
// Inverse: Unsave.
type Save struct {
	Name string
}

// Unsave moves a persisted thing back into the ephemeral tier. It is only
// produced as the inverse of Save.
//
// Inverse: Save.
type Unsave struct {
	UUID uuid.UUID
}

func (Create) change()        {}
func (CreateAndSave) change() {}
func (Delete) change()        {}
func (Save) change()          {}
func (Unsave) change()        {}

func (c Create) Describe() string        { return fmt.Sprintf("creating %s", thingLabel(c.Thing)) }
func (c CreateAndSave) Describe() string { return fmt.Sprintf("creating %s", thingLabel(c.Thing)) }
func (c Delete) Describe() string        { return fmt.Sprintf("deleting %s", c.ID) }
func (c Save) Describe() string          { return fmt.Sprintf("saving %s", c.Name) }
func (c Unsave) Describe() string        { return fmt.Sprintf("removing %s from the journal", c.UUID) }

func thingLabel(t Thing) string {
	if t.HasName() {
		return t.Name
	}
	return string(t.Kind)
}

// ChangeKind returns a stable label for the variant, used by metrics and logs.
func ChangeKind(c Change) string {
	switch c.(type) {
	case Create:
		return "create"
	case CreateAndSave:
		return "create_and_save"
	case Delete:
		return "delete"
	case Save:
		return "save"
	case Unsave:
		return "unsave"
	default:
		return "unknown"
	}
}

// AffectedID returns the key under which the thing touched by a mutation can
// be found after the mutation, derived from the mutation's inverse.
func AffectedID(inverse Change) ID {
	switch c := inverse.(type) {
	case Delete:
		return c.ID
	case Create:
		return NameID(c.Thing.Name)
	case CreateAndSave:
		return NameID(c.Thing.Name)
	case Save:
		return NameID(c.Name)
	case Unsave:
		return UUIDID(c.UUID)
	default:
		panic(fmt.Sprintf("domain: unknown change %T", inverse))
	}
}
