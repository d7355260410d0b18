// Package console parses storage commands and renders their results as
// markdown-flavoured text.
package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"initiative/internal/core"
	"initiative/pkg/domain"
)

// Failure is a user-facing error message.
type Failure string

func (f Failure) Error() string { return string(f) }

func failf(format string, args ...any) error { return Failure(fmt.Sprintf(format, args...)) }

// Console dispatches commands against a service.
type Console struct {
	svc *core.Service
}

// New returns a console bound to svc.
func New(svc *core.Service) *Console {
	return &Console{svc: svc}
}

// Commands lists the command words for completion, in help order.
var Commands = []string{"npc", "place", "region", "load", "save", "delete", "journal", "recent", "undo", "redo", "time", "help"}

// Run executes one line of input. Errors are Failures carrying the text to
// show the user.
func (c *Console) Run(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	word, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(word) {
	case "":
		return "", nil
	case "npc":
		return c.create(ctx, domain.NewNpc(rest))
	case "place":
		return c.create(ctx, domain.NewPlace(rest))
	case "region":
		return c.create(ctx, domain.NewRegion(rest))
	case "load":
		return c.load(rest)
	case "save":
		return c.save(ctx, rest)
	case "delete":
		return c.delete(ctx, rest)
	case "journal":
		return c.journal()
	case "recent":
		return c.recent(), nil
	case "undo":
		return c.undo(ctx)
	case "redo":
		return c.redo(ctx)
	case "time":
		return c.time(ctx, rest)
	case "help":
		return help, nil
	default:
		return "", failf("Unknown command: \"%s\".", input)
	}
}

const help = `# Help

* ~npc [name]~, ~place [name]~, ~region [name]~: create a new entry
* ~load [name]~: show an entry
* ~save [name]~: save an entry to your ` + "`journal`" + `
* ~delete [name]~: remove an entry
* ~journal~: list journal contents
* ~recent~: list unsaved entries
* ~undo~, ~redo~: reverse or reapply the last change
* ~time~: show the time; ~time +1h30m~ or ~time 2:08:00:00~ changes it`

func (c *Console) create(ctx context.Context, thing domain.Thing) (string, error) {
	if !thing.HasName() {
		return "", failf("Usage: %s [name]", thing.Kind)
	}
	if _, err := c.svc.Apply(ctx, domain.Create{Thing: thing}); err != nil {
		if errors.Is(err, domain.ErrNameAlreadyExists) {
			return "", failf("There is already an entity named \"%s\".", thing.Name)
		}
		return "", failf("Couldn't create `%s`.", thing.Name)
	}
	return c.describeUnsaved(thing), nil
}

func (c *Console) load(name string) (string, error) {
	thing, ok := c.svc.Load(domain.NameID(name))
	if !ok {
		return "", failf("No matches for \"%s\"", name)
	}
	if !thing.Saved() {
		return c.describeUnsaved(thing), nil
	}
	return details(thing), nil
}

func (c *Console) describeUnsaved(thing domain.Thing) string {
	if !c.svc.DataStoreEnabled() {
		return details(thing)
	}
	return fmt.Sprintf("%s\n\n_%s has not yet been saved. Use ~save %s~ to save it to your `journal`._",
		details(thing), thing.Name, thing.Name)
}

func (c *Console) save(ctx context.Context, name string) (string, error) {
	if !c.svc.DataStoreEnabled() {
		return "", Failure(journalUnavailable)
	}
	if _, err := c.svc.Apply(ctx, domain.Save{Name: name}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", failf("There is no entity named \"%s\".", name)
		}
		return "", failf("Couldn't save `%s`.", name)
	}
	return fmt.Sprintf("%s was successfully saved. Use `undo` to reverse this.", c.displayName(name)), nil
}

func (c *Console) delete(ctx context.Context, name string) (string, error) {
	display := c.displayName(name)
	if _, err := c.svc.Apply(ctx, domain.Delete{ID: domain.NameID(name)}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", failf("There is no entity named \"%s\".", name)
		}
		return "", failf("Couldn't delete `%s`.", name)
	}
	return fmt.Sprintf("%s was successfully deleted. Use `undo` to reverse this.", display), nil
}

const journalUnavailable = "The journal is not available: no data store could be reached."

var sections = []struct {
	kind  domain.ThingKind
	title string
}{
	{domain.KindNpc, "NPCs"},
	{domain.KindPlace, "Places"},
	{domain.KindRegion, "Regions"},
}

func (c *Console) journal() (string, error) {
	if !c.svc.DataStoreEnabled() {
		return "", Failure(journalUnavailable)
	}
	return renderJournal(c.svc.Journal()), nil
}

func renderJournal(things []domain.Thing) string {
	var b strings.Builder
	b.WriteString("# Journal")
	for _, section := range sections {
		var entries []domain.Thing
		for _, thing := range things {
			if thing.Kind == section.kind {
				entries = append(entries, thing)
			}
		}
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
		b.WriteString("\n\n## ")
		b.WriteString(section.title)
		for _, thing := range entries {
			b.WriteString("\n")
			b.WriteString(thing.Summary())
		}
	}
	if len(things) == 0 {
		b.WriteString("\n\n*Your journal is currently empty.*")
	}
	return b.String()
}

func (c *Console) recent() string {
	things := c.svc.Recent()
	if len(things) == 0 {
		return "*No unsaved entries.*"
	}
	lines := make([]string, 0, len(things)+1)
	lines = append(lines, "# Recent")
	for i := len(things) - 1; i >= 0; i-- {
		lines = append(lines, things[i].Summary()+" (unsaved)")
	}
	return strings.Join(lines, "\n")
}

func (c *Console) undo(ctx context.Context) (string, error) {
	id, err := c.svc.Undo(ctx)
	switch {
	case errors.Is(err, core.ErrNothingToUndo):
		return "", Failure("Nothing to undo.")
	case err != nil:
		return "", Failure("Failed to undo.")
	}
	action := "that"
	if change, ok := c.svc.PeekRedo(); ok {
		action = change.Describe()
	}
	return c.withThing(id, fmt.Sprintf("Successfully undid %s. Use `redo` to reverse this.", action)), nil
}

func (c *Console) redo(ctx context.Context) (string, error) {
	action := "that"
	if change, ok := c.svc.PeekRedo(); ok {
		action = change.Describe()
	}
	id, err := c.svc.Redo(ctx)
	switch {
	case errors.Is(err, core.ErrNothingToRedo):
		return "", Failure("Nothing to redo.")
	case err != nil:
		return "", Failure("Failed to redo.")
	}
	return c.withThing(id, fmt.Sprintf("Successfully redid %s. Use `undo` to reverse this.", action)), nil
}

func (c *Console) withThing(id domain.ID, message string) string {
	if thing, ok := c.svc.Load(id); ok {
		return fmt.Sprintf("%s\n\n_%s_", details(thing), message)
	}
	return message
}

func (c *Console) time(ctx context.Context, arg string) (string, error) {
	switch {
	case arg == "":
	case strings.HasPrefix(arg, "+"):
		d, err := time.ParseDuration(strings.TrimPrefix(arg, "+"))
		if err != nil || d < 0 {
			return "", failf("Couldn't parse duration \"%s\".", arg)
		}
		c.svc.SetTime(ctx, c.svc.Time().Add(int(d/time.Second)))
	default:
		t, err := domain.ParseTime(arg)
		if err != nil {
			return "", failf("Couldn't parse time \"%s\". Expected d:hh:mm:ss.", arg)
		}
		c.svc.SetTime(ctx, t)
	}
	t := c.svc.Time()
	return fmt.Sprintf("It is currently day %d at %02d:%02d:%02d.", t.Days, t.Hours, t.Minutes, t.Seconds), nil
}

// displayName returns the stored capitalization of name when it is known.
func (c *Console) displayName(name string) string {
	if thing, ok := c.svc.Load(domain.NameID(name)); ok {
		return thing.Name
	}
	return name
}

func details(thing domain.Thing) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(thing.Name)
	b.WriteString("\n*")
	b.WriteString(thing.KindLabel())
	b.WriteString("*")
	if thing.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(thing.Description)
	}
	if len(thing.Attributes) > 0 {
		keys := make([]string, 0, len(thing.Attributes))
		for k := range thing.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n**%s:** %s", k, thing.Attributes[k])
		}
	}
	return b.String()
}
