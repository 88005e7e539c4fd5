package mapping

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

type fixture struct {
	user                   uuid.UUID
	faith, prayer, study   *tracking.Category
	health, running, empty *tracking.Category
	tree                   *Tree
}

func newFixture() fixture {
	user := uuid.New()
	parent := func(name string) *tracking.Category {
		return &tracking.Category{ID: uuid.New(), UserID: user, Name: name, Level: tracking.LevelCategory, IsActive: true}
	}
	child := func(p *tracking.Category, name string) *tracking.Category {
		pid := p.ID
		return &tracking.Category{ID: uuid.New(), UserID: user, Name: name, Level: tracking.LevelSubcategory, ParentID: &pid, IsActive: true}
	}
	f := fixture{user: user}
	f.faith = parent("Faith")
	f.prayer = child(f.faith, "Prayer")
	f.study = child(f.faith, "Bible Study")
	f.health = parent("Health")
	f.running = child(f.health, "Running")
	f.empty = parent("Reading")
	f.tree = NewTree([]*tracking.Category{f.faith, f.prayer, f.study, f.health, f.running, f.empty})
	return f
}

func TestResolve_Cascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	store := NewMemoryStore()
	if err := store.Upsert(ctx, f.user, "  Morning Run ", f.health.ID, f.running.ID, tracking.ConfirmedConfidence); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := NewResolver(store)

	cases := []struct {
		name     string
		entry    tracking.ParsedEntry
		kind     tracking.MatchKind
		cat, sub uuid.UUID
		conf     float64
	}{
		{
			name:  "exact_by_activity",
			entry: tracking.ParsedEntry{Activity: "morning run"},
			kind:  tracking.MatchExact, cat: f.health.ID, sub: f.running.ID, conf: 1.0,
		},
		{
			name:  "structured_both_levels",
			entry: tracking.ParsedEntry{Category: "faith", Subcategory: "prayer", Activity: "prayer"},
			kind:  tracking.MatchStructured, cat: f.faith.ID, sub: f.prayer.ID, conf: 0.8,
		},
		{
			name:  "structured_substring_either_direction",
			entry: tracking.ParsedEntry{Category: "My Faith Life", Subcategory: "Bible", Activity: "Bible"},
			kind:  tracking.MatchStructured, cat: f.faith.ID, sub: f.study.ID, conf: 0.8,
		},
		{
			name:  "fuzzy_subcategory_token",
			entry: tracking.ParsedEntry{Activity: "evening running session"},
			kind:  tracking.MatchFuzzy, cat: f.health.ID, sub: f.running.ID, conf: 0.6,
		},
		{
			name:  "fuzzy_parent_picks_first_child",
			entry: tracking.ParsedEntry{Activity: "faith group"},
			kind:  tracking.MatchFuzzy, cat: f.faith.ID, sub: f.prayer.ID, conf: 0.6,
		},
		{
			name:  "childless_parent_never_matches",
			entry: tracking.ParsedEntry{Activity: "reading novels"},
			kind:  tracking.MatchNone,
		},
		{
			name:  "no_match",
			entry: tracking.ParsedEntry{Activity: "xyz"},
			kind:  tracking.MatchNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, f.user, tc.entry, f.tree)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Kind != tc.kind {
				t.Fatalf("kind=%s want %s (%+v)", got.Kind, tc.kind, got)
			}
			if tc.kind == tracking.MatchNone {
				if got.Suggestion() != nil {
					t.Fatalf("expected nil suggestion")
				}
				return
			}
			if got.CategoryID != tc.cat || got.SubcategoryID != tc.sub || got.Confidence != tc.conf {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestResolve_StructuredRequiresChild(t *testing.T) {
	f := newFixture()
	r := NewResolver(nil)
	got, err := r.Resolve(context.Background(), f.user, tracking.ParsedEntry{Category: "Faith", Subcategory: "Fasting", Activity: "Fasting"}, f.tree)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Kind == tracking.MatchStructured {
		t.Fatalf("structured tier must not match with only a parent: %+v", got)
	}
}

func TestResolve_FuzzyShortCategoryName(t *testing.T) {
	user := uuid.New()
	leisure := &tracking.Category{ID: uuid.New(), UserID: user, Name: "Leisure", Level: tracking.LevelCategory, IsActive: true}
	pid := leisure.ID
	tv := &tracking.Category{ID: uuid.New(), UserID: user, Name: "TV", Level: tracking.LevelSubcategory, ParentID: &pid, IsActive: true}
	tree := NewTree([]*tracking.Category{leisure, tv})
	r := NewResolver(nil)

	cases := []struct {
		name     string
		activity string
		found    bool
	}{
		{name: "equal_short_token", activity: "watched TV", found: true},
		{name: "short_token_case_insensitive", activity: "tv night", found: true},
		{name: "short_token_no_containment", activity: "tvs and radios", found: false},
		{name: "short_activity_token_inside_name", activity: "le walk", found: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), user, tracking.ParsedEntry{Activity: tc.activity}, tree)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Found() != tc.found {
				t.Fatalf("found=%v want %v (%+v)", got.Found(), tc.found, got)
			}
			if tc.found && (got.Kind != tracking.MatchFuzzy || got.CategoryID != leisure.ID || got.SubcategoryID != tv.ID) {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestResolve_ExactPreferredOverStructured(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Upsert(ctx, f.user, "faith", f.faith.ID, f.study.ID, 1.0)

	got, err := NewResolver(store).Resolve(ctx, f.user, tracking.ParsedEntry{Category: "Faith", Subcategory: "Prayer", Activity: "Prayer"}, f.tree)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Kind != tracking.MatchExact || got.SubcategoryID != f.study.ID {
		t.Fatalf("got %+v", got)
	}
}

func TestResolve_StaleMappingIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Upsert(ctx, f.user, "xyz", uuid.New(), uuid.New(), 1.0)

	got, err := NewResolver(store).Resolve(ctx, f.user, tracking.ParsedEntry{Activity: "xyz"}, f.tree)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Found() {
		t.Fatalf("stale mapping should not resolve: %+v", got)
	}
}

func TestResolve_MappingsAreUserScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Upsert(ctx, uuid.New(), "xyz", f.faith.ID, f.prayer.ID, 1.0)

	got, _ := NewResolver(store).Resolve(ctx, f.user, tracking.ParsedEntry{Activity: "xyz"}, f.tree)
	if got.Found() {
		t.Fatalf("another user's mapping leaked: %+v", got)
	}
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, uuid.UUID, string) (*tracking.CategoryMapping, error) {
	return nil, errStoreDown
}

func (failingStore) Upsert(context.Context, uuid.UUID, string, uuid.UUID, uuid.UUID, float64) error {
	return errStoreDown
}

func TestResolveAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	entries := []tracking.ParsedEntry{
		{Category: "Faith", Subcategory: "Prayer", Activity: "Prayer"},
		{Activity: "xyz"},
	}
	if err := NewResolver(NewMemoryStore()).ResolveAll(ctx, f.user, entries, f.tree); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if entries[0].Mapping == nil || entries[0].Mapping.MatchKind != tracking.MatchStructured {
		t.Fatalf("entry 0 mapping=%+v", entries[0].Mapping)
	}
	if entries[1].Mapping != nil {
		t.Fatalf("entry 1 mapping=%+v", entries[1].Mapping)
	}

	err := NewResolver(failingStore{}).ResolveAll(ctx, f.user, entries, f.tree)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err=%v, want store error", err)
	}
}

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	user, cat, sub := uuid.New(), uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		if err := s.Upsert(ctx, user, "Prayer", cat, sub, 1.0); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	rows := s.List(user)
	if len(rows) != 1 || rows[0].TextInput != "prayer" {
		t.Fatalf("rows=%+v", rows)
	}
	got, _ := s.Get(ctx, user, "PRAYER ")
	if got == nil || got.CategoryID != cat {
		t.Fatalf("Get=%+v", got)
	}
}
