package core

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"initiative/pkg/domain"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// RecentCapacity bounds the ephemeral tier. Inserting beyond it evicts the
// oldest unsaved thing.
const RecentCapacity = 100

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithRepositoryLogger routes repository diagnostics to logger.
func WithRepositoryLogger(logger Logger) RepositoryOption {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Repository keeps the persisted tier (cache mirroring the data store) and
// the ephemeral tier (recency buffer) consistent. It performs no locking;
// callers serialize access.
type Repository struct {
	cache   map[uuid.UUID]domain.Thing
	recent  *simplelru.LRU[string, domain.Thing]
	ds      domain.DataStore
	enabled bool
	time    domain.Time
	logger  Logger
	newUUID func() uuid.UUID
}

// NewRepository constructs an empty repository over ds. Persistence stays
// disabled until Init succeeds.
func NewRepository(ds domain.DataStore, opts ...RepositoryOption) *Repository {
	// Entries are never read through Get, so the LRU keeps insertion order
	// and evicts the oldest entry first.
	recent, err := simplelru.NewLRU[string, domain.Thing](RecentCapacity, nil)
	if err != nil {
		panic(err)
	}
	r := &Repository{
		cache:   make(map[uuid.UUID]domain.Thing),
		recent:  recent,
		ds:      ds,
		time:    domain.DefaultTime,
		logger:  noopLogger{},
		newUUID: uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init loads the persisted tier and the stored game time. Failures leave the
// repository usable in ephemeral-only mode and are only logged.
func (r *Repository) Init(ctx context.Context) {
	things, err := r.ds.GetAllTheThings(ctx)
	if err != nil {
		r.cache = make(map[uuid.UUID]domain.Thing)
		r.enabled = false
		r.logger.Warn("data store unavailable, journal disabled", "error", err)
	} else {
		cache := make(map[uuid.UUID]domain.Thing, len(things))
		for _, thing := range things {
			if thing.UUID == nil {
				r.logger.Warn("skipping stored thing without uuid", "name", thing.Name)
				continue
			}
			cache[*thing.UUID] = thing.Clone()
		}
		r.cache = cache
		r.enabled = true
		r.logger.Info("journal loaded", "things", len(cache))
	}

	value, ok, err := r.ds.GetValue(ctx, domain.TimeKey)
	switch {
	case err != nil:
		r.logger.Debug("time not loaded", "error", err)
	case ok:
		t, err := domain.ParseTime(value)
		if err != nil {
			r.logger.Warn("ignoring stored time", "value", value, "error", err)
			break
		}
		r.time = t
	}
}

// DataStoreEnabled reports whether Init reached the data store.
func (r *Repository) DataStoreEnabled() bool { return r.enabled }

// Time returns the current game time.
func (r *Repository) Time() domain.Time { return r.time }

// SetTime updates the game time and persists it best-effort.
func (r *Repository) SetTime(ctx context.Context, t domain.Time) {
	r.time = t
	if err := r.ds.SetValue(ctx, domain.TimeKey, t.String()); err != nil {
		r.logger.Debug("time not persisted", "error", err)
	}
}

// Load finds a thing by name (journal first, then recent) or by UUID.
func (r *Repository) Load(id domain.ID) (domain.Thing, bool) {
	if u, ok := id.UUID(); ok {
		thing, ok := r.cache[u]
		if !ok {
			return domain.Thing{}, false
		}
		return thing.Clone(), true
	}
	name, _ := id.Name()
	if thing, ok := r.findInCache(name); ok {
		return thing.Clone(), true
	}
	if thing, ok := r.recent.Peek(name); ok {
		return thing.Clone(), true
	}
	return domain.Thing{}, false
}

// Recent returns the ephemeral tier, oldest first.
func (r *Repository) Recent() []domain.Thing {
	values := r.recent.Values()
	out := make([]domain.Thing, len(values))
	for i, thing := range values {
		out[i] = thing.Clone()
	}
	return out
}

// Journal returns the persisted tier ordered by UUID.
func (r *Repository) Journal() []domain.Thing {
	out := make([]domain.Thing, 0, len(r.cache))
	for _, thing := range r.cache {
		out = append(out, thing.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].UUID[:], out[j].UUID[:]) < 0
	})
	return out
}

// All returns the journal followed by the recent things.
func (r *Repository) All() []domain.Thing {
	return append(r.Journal(), r.Recent()...)
}

// Modify applies change. On success it returns the change that reverses it.
// On failure it returns the original change (with any tentative identity
// cleared) and a domain.Error; state is left unchanged or restored.
func (r *Repository) Modify(ctx context.Context, change domain.Change) (domain.Change, error) {
	switch c := change.(type) {
	case domain.Create:
		return r.create(c)
	case domain.CreateAndSave:
		return r.createAndSave(ctx, c)
	case domain.Delete:
		return r.delete(ctx, c)
	case domain.Save:
		return r.save(ctx, c)
	case domain.Unsave:
		return r.unsave(ctx, c)
	default:
		panic(fmt.Sprintf("core: unknown change %T", change))
	}
}

func (r *Repository) create(c domain.Create) (domain.Change, error) {
	if err := r.checkName(c.Thing); err != nil {
		return c, err
	}
	r.pushRecent(c.Thing)
	return domain.Delete{ID: domain.NameID(c.Thing.Name)}, nil
}

func (r *Repository) createAndSave(ctx context.Context, c domain.CreateAndSave) (domain.Change, error) {
	if err := r.checkName(c.Thing); err != nil {
		return c, err
	}
	id, err := r.saveThing(ctx, c.Thing)
	if err != nil {
		c.Thing.ClearUUID()
		return c, err
	}
	return domain.Delete{ID: domain.UUIDID(id)}, nil
}

func (r *Repository) delete(ctx context.Context, c domain.Delete) (domain.Change, error) {
	if u, ok := c.ID.UUID(); ok {
		thing, err := r.deleteByUUID(ctx, u)
		if err != nil {
			return c, err
		}
		return domain.CreateAndSave{Thing: thing}, nil
	}
	name, _ := c.ID.Name()
	if thing, ok := r.findInCache(name); ok {
		removed, err := r.deleteByUUID(ctx, *thing.UUID)
		if err != nil {
			return c, err
		}
		return domain.CreateAndSave{Thing: removed}, nil
	}
	if thing, ok := r.recent.Peek(name); ok {
		r.recent.Remove(name)
		if thing.Saved() {
			return domain.CreateAndSave{Thing: thing}, nil
		}
		return domain.Create{Thing: thing}, nil
	}
	return c, domain.ErrNotFound
}

func (r *Repository) save(ctx context.Context, c domain.Save) (domain.Change, error) {
	key := strings.ToLower(c.Name)
	thing, ok := r.recent.Peek(key)
	if !ok {
		return c, domain.ErrNotFound
	}
	r.recent.Remove(key)
	id, err := r.saveThing(ctx, thing)
	if err != nil {
		thing.ClearUUID()
		r.pushRecent(thing)
		return c, err
	}
	return domain.Unsave{UUID: id}, nil
}

func (r *Repository) unsave(ctx context.Context, c domain.Unsave) (domain.Change, error) {
	thing, err := r.deleteByUUID(ctx, c.UUID)
	if err != nil {
		return c, err
	}
	thing.ClearUUID()
	if _, err := r.create(domain.Create{Thing: thing}); err != nil {
		r.logger.Warn("unsave could not return thing to recent, restoring", "uuid", c.UUID, "error", err)
		thing.SetUUID(c.UUID)
		if saveErr := r.ds.SaveThing(ctx, thing); saveErr != nil {
			r.logger.Error("restore after failed unsave", "uuid", c.UUID, "error", saveErr)
			return c, domain.ErrDataStoreFailed
		}
		r.cache[c.UUID] = thing.Clone()
		return c, err
	}
	return domain.Save{Name: thing.Name}, nil
}

// saveThing assigns a fresh identity and persists the thing, indexing it in
// the cache on success.
func (r *Repository) saveThing(ctx context.Context, thing domain.Thing) (uuid.UUID, error) {
	id := r.newUUID()
	thing.SetUUID(id)
	if err := r.ds.SaveThing(ctx, thing); err != nil {
		r.logger.Warn("save thing failed", "name", thing.Name, "error", err)
		return uuid.Nil, domain.ErrDataStoreFailed
	}
	r.cache[id] = thing.Clone()
	return id, nil
}

// deleteByUUID removes a persisted thing from the cache and the data store.
// A failed backend delete puts the cache entry back.
func (r *Repository) deleteByUUID(ctx context.Context, id uuid.UUID) (domain.Thing, error) {
	thing, ok := r.cache[id]
	if !ok {
		return domain.Thing{}, domain.ErrNotFound
	}
	delete(r.cache, id)
	if err := r.ds.DeleteThingByUUID(ctx, id); err != nil {
		r.cache[id] = thing
		r.logger.Warn("delete thing failed", "uuid", id, "error", err)
		return domain.Thing{}, domain.ErrDataStoreFailed
	}
	return thing.Clone(), nil
}

func (r *Repository) checkName(thing domain.Thing) error {
	if !thing.HasName() {
		return domain.ErrMissingName
	}
	key := strings.ToLower(thing.Name)
	if _, ok := r.findInCache(key); ok {
		return domain.ErrNameAlreadyExists
	}
	if r.recent.Contains(key) {
		return domain.ErrNameAlreadyExists
	}
	return nil
}

func (r *Repository) findInCache(lowered string) (domain.Thing, bool) {
	for _, thing := range r.cache {
		if thing.NameMatches(lowered) {
			return thing, true
		}
	}
	return domain.Thing{}, false
}

func (r *Repository) pushRecent(thing domain.Thing) {
	r.recent.Add(strings.ToLower(thing.Name), thing.Clone())
}
