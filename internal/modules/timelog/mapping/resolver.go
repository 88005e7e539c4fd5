// Package mapping suggests a (category, subcategory) pair for a parsed entry.
//
// Resolution is a fixed cascade of exact, structured and fuzzy checks; the
// first tier that succeeds decides the match and its confidence.
package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

const (
	StructuredConfidence = 0.8
	FuzzyConfidence      = 0.6

	// minFuzzyTokenLen is the shortest token allowed to match by containment.
	// Shorter tokens still match a category token they equal.
	minFuzzyTokenLen = 3
)

// Match is the tagged result of a resolution. Kind == MatchNone means the
// entry needs a manual category choice.
type Match struct {
	Kind          tracking.MatchKind
	TextInput     string
	CategoryID    uuid.UUID
	SubcategoryID uuid.UUID
	Confidence    float64
}

func (m Match) Found() bool { return m.Kind != "" && m.Kind != tracking.MatchNone }

// Suggestion converts the match into the shape attached to parsed entries.
func (m Match) Suggestion() *tracking.MappingSuggestion {
	if !m.Found() {
		return nil
	}
	return &tracking.MappingSuggestion{
		TextInput:       m.TextInput,
		CategoryID:      m.CategoryID,
		SubcategoryID:   m.SubcategoryID,
		ConfidenceScore: m.Confidence,
		MatchKind:       m.Kind,
	}
}

var noMatch = Match{Kind: tracking.MatchNone}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Tree indexes a user's active categories.
type Tree struct {
	ordered  []*tracking.Category
	byID     map[uuid.UUID]*tracking.Category
	children map[uuid.UUID][]*tracking.Category
}

func NewTree(categories []*tracking.Category) *Tree {
	t := &Tree{
		ordered:  make([]*tracking.Category, 0, len(categories)),
		byID:     map[uuid.UUID]*tracking.Category{},
		children: map[uuid.UUID][]*tracking.Category{},
	}
	for _, c := range categories {
		if c == nil {
			continue
		}
		t.ordered = append(t.ordered, c)
		t.byID[c.ID] = c
		if c.Level == tracking.LevelSubcategory && c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c)
		}
	}
	return t
}

func (t *Tree) Get(id uuid.UUID) *tracking.Category { return t.byID[id] }

// Resolve runs the cascade for one entry.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, entry tracking.ParsedEntry, tree *Tree) (Match, error) {
	if m, err := r.exact(ctx, userID, entry, tree); err != nil || m.Found() {
		return m, err
	}
	if m := structured(entry, tree); m.Found() {
		return m, nil
	}
	if m := fuzzy(entry, tree); m.Found() {
		return m, nil
	}
	return noMatch, nil
}

// ResolveAll attaches a suggestion (or nil) to every entry in place.
func (r *Resolver) ResolveAll(ctx context.Context, userID uuid.UUID, entries []tracking.ParsedEntry, tree *Tree) error {
	for i := range entries {
		m, err := r.Resolve(ctx, userID, entries[i], tree)
		if err != nil {
			return fmt.Errorf("resolve entry %d: %w", i, err)
		}
		entries[i].Mapping = m.Suggestion()
	}
	return nil
}

func lookupText(entry tracking.ParsedEntry) string {
	if strings.TrimSpace(entry.Category) != "" {
		return entry.Category
	}
	return entry.Activity
}

func (r *Resolver) exact(ctx context.Context, userID uuid.UUID, entry tracking.ParsedEntry, tree *Tree) (Match, error) {
	if r.store == nil {
		return noMatch, nil
	}
	key := tracking.MappingKey(lookupText(entry))
	if key == "" {
		return noMatch, nil
	}
	row, err := r.store.Get(ctx, userID, key)
	if err != nil {
		return noMatch, err
	}
	if row == nil {
		return noMatch, nil
	}
	// A mapping that points at a deleted or inactive category is stale.
	if tree.Get(row.CategoryID) == nil || tree.Get(row.SubcategoryID) == nil {
		return noMatch, nil
	}
	return Match{
		Kind:          tracking.MatchExact,
		TextInput:     key,
		CategoryID:    row.CategoryID,
		SubcategoryID: row.SubcategoryID,
		Confidence:    row.ConfidenceScore,
	}, nil
}

func structured(entry tracking.ParsedEntry, tree *Tree) Match {
	label := strings.ToLower(strings.TrimSpace(entry.Category))
	subLabel := strings.ToLower(strings.TrimSpace(entry.Subcategory))
	if label == "" || subLabel == "" {
		return noMatch
	}
	for _, parent := range tree.ordered {
		if parent.Level != tracking.LevelCategory || !mutualContains(strings.ToLower(parent.Name), label) {
			continue
		}
		for _, child := range tree.children[parent.ID] {
			if mutualContains(strings.ToLower(child.Name), subLabel) {
				return Match{
					Kind:          tracking.MatchStructured,
					TextInput:     tracking.MappingKey(lookupText(entry)),
					CategoryID:    parent.ID,
					SubcategoryID: child.ID,
					Confidence:    StructuredConfidence,
				}
			}
		}
	}
	return noMatch
}

func fuzzy(entry tracking.ParsedEntry, tree *Tree) Match {
	activityTokens := tokens(entry.Activity)
	if len(activityTokens) == 0 {
		return noMatch
	}
	for _, c := range tree.ordered {
		if !anyTokenOverlap(activityTokens, tokens(c.Name)) {
			continue
		}
		m := Match{
			Kind:       tracking.MatchFuzzy,
			TextInput:  tracking.MappingKey(lookupText(entry)),
			Confidence: FuzzyConfidence,
		}
		switch c.Level {
		case tracking.LevelCategory:
			kids := tree.children[c.ID]
			if len(kids) == 0 {
				continue
			}
			m.CategoryID, m.SubcategoryID = c.ID, kids[0].ID
		case tracking.LevelSubcategory:
			m.CategoryID, m.SubcategoryID = *c.ParentID, c.ID
		default:
			continue
		}
		return m
	}
	return noMatch
}

func mutualContains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func tokens(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func tokenOverlap(x, y string) bool {
	if x == y {
		return true
	}
	if len([]rune(x)) < minFuzzyTokenLen || len([]rune(y)) < minFuzzyTokenLen {
		return false
	}
	return mutualContains(x, y)
}

func anyTokenOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if tokenOverlap(x, y) {
				return true
			}
		}
	}
	return false
}
