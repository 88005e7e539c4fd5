package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	"github.com/yungbote/wellness-backend/internal/data/tx"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/bulk"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type BulkEntryService interface {
	Insert(ctx context.Context, entries []types.BulkEntry, rules *types.PartialValidationRule) (*bulk.Result, error)
}

type BulkEntryConfig struct {
	Defaults         types.ValidationRule
	IncludePersisted bool
	Location         *time.Location
	StoreTimeout     time.Duration
	// Runner, when set, wraps each insert page in a transaction.
	Runner           tx.Runner
	Metrics          *observability.Metrics
}

type bulkEntryService struct {
	log      *logger.Logger
	defaults types.ValidationRule
	engine   *bulk.Engine
	metrics  *observability.Metrics
}

func NewBulkEntryService(
	log *logger.Logger,
	categoryRepo repos.CategoryRepo,
	activityRepo repos.ActivityRepo,
	mappingRepo repos.CategoryMappingRepo,
	cfg BulkEntryConfig,
) BulkEntryService {
	serviceLog := log.With("service", "BulkEntryService")
	opts := bulk.Options{Location: cfg.Location, Timeout: cfg.StoreTimeout}
	if cfg.IncludePersisted {
		opts.Totals = repoTotalsSource{repo: activityRepo}
	}
	return &bulkEntryService{
		log:      serviceLog,
		defaults: cfg.Defaults,
		metrics:  cfg.Metrics,
		engine: bulk.NewEngine(
			serviceLog,
			repoCategorySource{repo: categoryRepo},
			repoActivitySink{repo: activityRepo, runner: cfg.Runner},
			NewRepoMappingStore(mappingRepo),
			opts,
		),
	}
}

func (s *bulkEntryService) Insert(ctx context.Context, entries []types.BulkEntry, rules *types.PartialValidationRule) (*bulk.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "timelog.bulk_insert")
	defer span.End()

	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return nil, unauthenticated("no authenticated user")
	}
	rule := s.defaults.Merge(rules)
	if err := rule.Validate(); err != nil {
		return nil, InvalidInput(err.Error())
	}
	span.SetAttributes(
		attribute.Int("bulk.entries", len(entries)),
		attribute.Bool("bulk.auto_round", rule.AutoRound15Min),
		attribute.Int("bulk.sleep_cutoff_hour", rule.SleepCutoffHour),
	)

	res, err := s.engine.Insert(ctx, userID, entries, rule)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk insert")
		if errors.Is(err, bulk.ErrInvalidRule) {
			return nil, InvalidInput(err.Error())
		}
		s.log.Error("bulk insert failed before commit", "user_id", userID, "error", err)
		s.metrics.ObserveBulk("store_error", 0)
		return nil, MapStoreError(err)
	}
	s.metrics.ObserveBulk(string(res.Kind), res.Committed)

	span.SetAttributes(attribute.String("bulk.outcome", string(res.Kind)), attribute.Int("bulk.committed", res.Committed))
	if res.Kind == bulk.KindInsertFailed {
		span.RecordError(res.Failure)
		span.SetStatus(codes.Error, "partial insert")
	}
	return res, nil
}
