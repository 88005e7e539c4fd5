// Package bulk validates, normalizes and inserts confirmed time entries.
//
// Insert is all-or-nothing up to the insert step: a single invalid entry or a
// daily-goal overflow rejects the batch before any row is written. Pages are
// then written sequentially so a failure stops at a known row count.
package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/mapping"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/parser"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const (
	DefaultPageSize     = 100
	DefaultStoreTimeout = 15 * time.Second
)

// CategorySource answers the single ownership query of a batch.
type CategorySource interface {
	GetOwnedByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*tracking.Category, error)
}

// ActivitySink writes one page of rows atomically.
type ActivitySink interface {
	CreatePage(ctx context.Context, rows []*tracking.Activity) error
}

// TotalsSource reports minutes already persisted per category and day.
type TotalsSource interface {
	SumMinutesByCategoryDates(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, dates []string) ([]tracking.CategoryDayTotal, error)
}

type Options struct {
	// Totals, when set, makes the guardrail count persisted minutes too.
	Totals   TotalsSource
	Now      func() time.Time
	Location *time.Location
	Timeout  time.Duration
	PageSize int
}

type Engine struct {
	log        *logger.Logger
	categories CategorySource
	activities ActivitySink
	mappings   mapping.Store
	totals     TotalsSource
	now        func() time.Time
	loc        *time.Location
	timeout    time.Duration
	pageSize   int
}

func NewEngine(baseLog *logger.Logger, categories CategorySource, activities ActivitySink, mappings mapping.Store, opts Options) *Engine {
	e := &Engine{
		log:        baseLog.With("component", "BulkEngine"),
		categories: categories,
		activities: activities,
		mappings:   mappings,
		totals:     opts.Totals,
		now:        opts.Now,
		loc:        opts.Location,
		timeout:    opts.Timeout,
		pageSize:   opts.PageSize,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.timeout <= 0 {
		e.timeout = DefaultStoreTimeout
	}
	if e.pageSize <= 0 {
		e.pageSize = DefaultPageSize
	}
	return e
}

// Insert runs the full pipeline for one request. The error return is reserved
// for failures before any row is written (bad rule, store unavailable);
// validation, guardrail and page failures are reported through Result.
func (e *Engine) Insert(ctx context.Context, userID uuid.UUID, entries []tracking.BulkEntry, rule tracking.ValidationRule) (*Result, error) {
	if err := rule.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidRule, err)
	}
	res := &Result{Total: len(entries), Rows: []*tracking.Activity{}}
	if len(entries) == 0 {
		res.Kind = KindOK
		return res, nil
	}

	parsed := make([]checked, len(entries))
	fieldErrs := make([][]string, len(entries))
	idSet := map[uuid.UUID]struct{}{}
	for i, entry := range entries {
		parsed[i], fieldErrs[i] = parseFields(i, entry)
		for _, id := range []uuid.UUID{parsed[i].categoryID, parsed[i].subcategoryID} {
			if id != uuid.Nil {
				idSet[id] = struct{}{}
			}
		}
	}

	owned, err := e.loadOwned(ctx, userID, idSet)
	if err != nil {
		return nil, err
	}

	for i := range parsed {
		errs := fieldErrs[i]
		errs = append(errs, checkOwnership(parsed[i], owned)...)
		errs = append(errs, checkIncrement(parsed[i], rule)...)
		if len(errs) > 0 {
			res.EntryErrors = append(res.EntryErrors, EntryError{Entry: i, Errors: errs})
			continue
		}
		res.Processed++
	}
	if len(res.EntryErrors) > 0 {
		res.Kind = KindValidationFailed
		e.log.Info("bulk insert rejected", "user_id", userID, "total", res.Total, "invalid", len(res.EntryErrors))
		return res, nil
	}

	now := e.now()
	norm := make([]normalized, len(parsed))
	for i, c := range parsed {
		norm[i] = normalize(c, rule, now, e.loc)
		for _, w := range norm[i].warnings {
			res.Warnings = append(res.Warnings, Warning{Entry: i, Warning: w})
		}
	}

	violations, err := e.checkGuardrails(ctx, userID, norm, owned)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		res.Kind = KindGuardrailFailed
		res.GuardrailErrors = violations
		e.log.Info("bulk insert exceeded daily goals", "user_id", userID, "violations", len(violations))
		return res, nil
	}

	rows, err := buildRows(userID, norm)
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(rows); start += e.pageSize {
		end := min(start+e.pageSize, len(rows))
		page := rows[start:end]
		err := e.withTimeout(ctx, func(ctx context.Context) error {
			return e.activities.CreatePage(ctx, page)
		})
		if err != nil {
			res.Kind = KindInsertFailed
			res.Failure = errors.Join(ErrInfrastructure, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err))
			res.Rows = rows[:start]
			e.log.Error("bulk insert page failed", "user_id", userID, "committed", res.Committed, "total", res.Total, "error", err)
			return res, nil
		}
		res.Committed = end
	}
	res.Kind = KindOK
	res.Rows = rows

	e.persistMappings(ctx, userID, parsed)
	return res, nil
}

func (e *Engine) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return fn(ctx)
}

func (e *Engine) loadOwned(ctx context.Context, userID uuid.UUID, idSet map[uuid.UUID]struct{}) (map[uuid.UUID]*tracking.Category, error) {
	owned := map[uuid.UUID]*tracking.Category{}
	if len(idSet) == 0 {
		return owned, nil
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	var rows []*tracking.Category
	err := e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		rows, err = e.categories.GetOwnedByIDs(ctx, userID, ids)
		return err
	})
	if err != nil {
		return nil, errors.Join(ErrInfrastructure, fmt.Errorf("load owned categories: %w", err))
	}
	for _, c := range rows {
		if c != nil && c.UserID == userID {
			owned[c.ID] = c
		}
	}
	return owned, nil
}

type dayKey struct {
	date       string
	categoryID uuid.UUID
}

func (e *Engine) checkGuardrails(ctx context.Context, userID uuid.UUID, norm []normalized, owned map[uuid.UUID]*tracking.Category) ([]string, error) {
	totals := map[dayKey]int{}
	var order []dayKey
	for _, n := range norm {
		k := dayKey{date: n.effectiveDate, categoryID: n.categoryID}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += n.duration
	}

	if e.totals != nil {
		if err := e.addPersisted(ctx, userID, order, totals, owned); err != nil {
			return nil, err
		}
	}

	var out []string
	for _, k := range order {
		c := owned[k.categoryID]
		if c == nil || c.DailyTimeGoalMinutes == nil {
			continue
		}
		if goal := *c.DailyTimeGoalMinutes; totals[k] > goal {
			out = append(out, fmt.Sprintf("Category %q on %s: %d minutes exceeds daily goal of %d minutes", c.Name, k.date, totals[k], goal))
		}
	}
	return out, nil
}

func (e *Engine) addPersisted(ctx context.Context, userID uuid.UUID, keys []dayKey, totals map[dayKey]int, owned map[uuid.UUID]*tracking.Category) error {
	catSet, dateSet := map[uuid.UUID]struct{}{}, map[string]struct{}{}
	var catIDs []uuid.UUID
	var dates []string
	for _, k := range keys {
		if c := owned[k.categoryID]; c == nil || c.DailyTimeGoalMinutes == nil {
			continue
		}
		if _, ok := catSet[k.categoryID]; !ok {
			catSet[k.categoryID] = struct{}{}
			catIDs = append(catIDs, k.categoryID)
		}
		if _, ok := dateSet[k.date]; !ok {
			dateSet[k.date] = struct{}{}
			dates = append(dates, k.date)
		}
	}
	if len(catIDs) == 0 {
		return nil
	}
	var persisted []tracking.CategoryDayTotal
	err := e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		persisted, err = e.totals.SumMinutesByCategoryDates(ctx, userID, catIDs, dates)
		return err
	})
	if err != nil {
		return errors.Join(ErrInfrastructure, fmt.Errorf("sum persisted minutes: %w", err))
	}
	for _, p := range persisted {
		k := dayKey{date: p.LogDate, categoryID: p.CategoryID}
		if _, inBatch := totals[k]; inBatch {
			totals[k] += p.Minutes
		}
	}
	return nil
}

func buildRows(userID uuid.UUID, norm []normalized) ([]*tracking.Activity, error) {
	rows := make([]*tracking.Activity, 0, len(norm))
	for _, n := range norm {
		meta := tracking.ActivityMetadata{Source: tracking.SourceBulkImport, Warnings: n.warnings}
		if original := n.date.Format(parser.DateLayout); original != n.effectiveDate {
			meta.OriginalDate = original
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("encode metadata for entry %d: %w", n.index, err)
		}
		row := &tracking.Activity{
			ID:              uuid.New(),
			UserID:          userID,
			CategoryID:      n.categoryID,
			SubcategoryID:   n.subcategoryID,
			Name:            strings.TrimSpace(n.src.Activity),
			DateTime:        n.dateTime,
			LogDate:         n.effectiveDate,
			DurationMinutes: n.duration,
			IsCompleted:     true,
			Metadata:        datatypes.JSON(raw),
		}
		if n.src.IsCompleted != nil {
			row.IsCompleted = *n.src.IsCompleted
		}
		if n.src.Notes != nil {
			row.Notes = *n.src.Notes
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// persistMappings learns activity text → category pairs from a committed
// batch. Failures never reach the caller.
func (e *Engine) persistMappings(ctx context.Context, userID uuid.UUID, entries []checked) {
	if e.mappings == nil {
		return
	}
	type pair struct{ cat, sub uuid.UUID }
	learned := map[string]pair{}
	var keys []string
	for _, c := range entries {
		key := tracking.MappingKey(c.src.Activity)
		if key == "" || c.categoryID == uuid.Nil || c.subcategoryID == uuid.Nil {
			continue
		}
		if _, seen := learned[key]; !seen {
			keys = append(keys, key)
		}
		learned[key] = pair{cat: c.categoryID, sub: c.subcategoryID}
	}
	for _, key := range keys {
		p := learned[key]
		err := e.withTimeout(ctx, func(ctx context.Context) error {
			return e.mappings.Upsert(ctx, userID, key, p.cat, p.sub, tracking.ConfirmedConfidence)
		})
		if err != nil {
			e.log.Warn("category mapping upsert failed", "user_id", userID, "text_input", key, "error", err)
		}
	}
}
