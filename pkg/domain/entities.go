// Package domain defines the entities, identifiers, reversible changes, and
// persistence contracts shared by the initiative repository and its backends.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ThingKind identifies the variant of a Thing.
type ThingKind string

// Supported thing kinds. Journal listings group by kind in this order.
const (
	// KindNpc identifies a non-player character.
	KindNpc ThingKind = "npc"
	// KindPlace identifies a place such as an inn, shop, or temple.
	KindPlace  ThingKind = "place"
	KindRegion ThingKind = "region"
)

// Kinds lists every supported kind in display order.
var Kinds = []ThingKind{KindNpc, KindPlace, KindRegion}

// Valid reports whether the kind is one of the supported variants.
func (k ThingKind) Valid() bool {
	switch k {
	case KindNpc, KindPlace, KindRegion:
		return true
	default:
		return false
	}
}

// Thing is a domain entity managed by the repository. A Thing with a UUID is
// persisted; a Thing without one lives only in the ephemeral tier.
type Thing struct {
	Kind        ThingKind         `json:"kind"`
	UUID        *uuid.UUID        `json:"uuid,omitempty"`
	Name        string            `json:"name,omitempty"`
	Subtype     string            `json:"subtype,omitempty"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// NewNpc returns an ephemeral NPC with the supplied name.
func NewNpc(name string) Thing { return Thing{Kind: KindNpc, Name: name} }

// NewPlace returns an ephemeral place with the supplied name.
func NewPlace(name string) Thing { return Thing{Kind: KindPlace, Name: name} }

// NewRegion returns an ephemeral region with the supplied name.
func NewRegion(name string) Thing { return Thing{Kind: KindRegion, Name: name} }

// HasName reports whether the name field is set.
func (t Thing) HasName() bool { return t.Name != "" }

// NameMatches compares the thing's name against an already lowercased name.
func (t Thing) NameMatches(lowered string) bool {
	return t.HasName() && strings.ToLower(t.Name) == lowered
}

// Saved reports whether the thing carries a persistent identity.
func (t Thing) Saved() bool { return t.UUID != nil }

// SetUUID assigns a persistent identity.
func (t *Thing) SetUUID(id uuid.UUID) {
	t.UUID = &id
}

// ClearUUID drops the persistent identity, returning the thing to ephemeral form.
func (t *Thing) ClearUUID() {
	t.UUID = nil
}

// Clone returns a deep copy so stored values never alias caller-owned maps.
func (t Thing) Clone() Thing {
	cp := t
	if t.UUID != nil {
		id := *t.UUID
		cp.UUID = &id
	}
	if t.Attributes != nil {
		cp.Attributes = make(map[string]string, len(t.Attributes))
		for k, v := range t.Attributes {
			cp.Attributes[k] = v
		}
	}
	return cp
}

// KindLabel returns the human readable kind used in summaries.
func (t Thing) KindLabel() string {
	if t.Subtype != "" {
		return t.Subtype
	}
	return string(t.Kind)
}

// Summary renders a one-line description, e.g. "Odysseus (human npc)".
func (t Thing) Summary() string {
	name := t.Name
	if name == "" {
		name = "(unnamed)"
	}
	if t.Subtype != "" {
		return fmt.Sprintf("%s (%s %s)", name, t.Subtype, t.Kind)
	}
	return fmt.Sprintf("%s (%s)", name, t.Kind)
}

func (t Thing) String() string { return t.Summary() }
