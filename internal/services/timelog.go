package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/mapping"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/parser"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const tracerName = "wellness-backend/timelog"

type TimeLogService interface {
	Parse(ctx context.Context, text string, date string) ([]types.ParsedEntry, error)
}

type timeLogService struct {
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
	mappingRepo  repos.CategoryMappingRepo
	loc          *time.Location
	timeout      time.Duration
	metrics      *observability.Metrics
	now          func() time.Time
}

func NewTimeLogService(log *logger.Logger, categoryRepo repos.CategoryRepo, mappingRepo repos.CategoryMappingRepo, loc *time.Location, timeout time.Duration, metrics *observability.Metrics) TimeLogService {
	if loc == nil {
		loc = time.UTC
	}
	return &timeLogService{
		log:          log.With("service", "TimeLogService"),
		categoryRepo: categoryRepo,
		mappingRepo:  mappingRepo,
		loc:          loc,
		timeout:      timeout,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (s *timeLogService) Parse(ctx context.Context, text string, date string) ([]types.ParsedEntry, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "timelog.parse")
	defer span.End()

	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return nil, unauthenticated("no authenticated user")
	}
	date = strings.TrimSpace(date)
	if date != "" && !parser.ValidDate(date) {
		return nil, InvalidInput("date must be YYYY-MM-DD")
	}

	tree, store, err := s.loadUserData(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load user data")
		s.log.Error("time log parse: load failed", "user_id", userID, "error", err)
		return nil, MapStoreError(err)
	}

	entries := parser.ParseTextLog(text, date, func() time.Time { return s.now().In(s.loc) })
	if err := mapping.NewResolver(store).ResolveAll(ctx, userID, entries, tree); err != nil {
		return nil, MapStoreError(err)
	}

	matched := 0
	for _, e := range entries {
		if e.Mapping == nil {
			s.metrics.ObserveParsed(string(types.MatchNone))
			continue
		}
		matched++
		s.metrics.ObserveParsed(string(e.Mapping.MatchKind))
	}
	span.SetAttributes(attribute.Int("timelog.entries", len(entries)), attribute.Int("timelog.matched", matched))
	s.log.Debug("time log parsed", "user_id", userID, "entries", len(entries), "matched", matched)
	return entries, nil
}

// loadUserData reads the category tree and learned mappings concurrently.
// Mappings are snapshotted into memory so resolution does one query total.
func (s *timeLogService) loadUserData(ctx context.Context, userID uuid.UUID) (*mapping.Tree, *mapping.MemoryStore, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var categories []*types.Category
	var mappings []*types.CategoryMapping
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.categoryRepo.ListActiveByUser(dbctx.Context{Ctx: gctx}, userID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		categories = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.mappingRepo.ListByUser(dbctx.Context{Ctx: gctx}, userID)
		if err != nil {
			return fmt.Errorf("list category mappings: %w", err)
		}
		mappings = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	valid, dropped := types.ValidTree(categories)
	for _, err := range dropped {
		s.log.Warn("skipping invalid category", "user_id", userID, "error", err)
	}
	return mapping.NewTree(valid), mapping.NewMemoryStoreFrom(mappings), nil
}
