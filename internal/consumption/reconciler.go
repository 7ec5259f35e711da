package consumption

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTotalsTTL = 5 * time.Minute
	MaxPageSize      = 500
)

// Source is the storage collaborator. Implementations must be safe for
// concurrent use; the reconciler issues its fetches in parallel.
type Source interface {
	FetchOrderHeader(ctx context.Context, orderNumber string) (ProductionOrderHeader, error)
	FetchBatches(ctx context.Context, orderNumber string) ([]BatchRecord, error)
	FetchObservedBatches(ctx context.Context, orderNumber string) ([]BatchRecord, error)
	FetchRecipeIngredientTotals(ctx context.Context, orderNumber string) (RecipeTotals, error)
	FetchConsumptionRows(ctx context.Context, orderNumber string) ([]ConsumptionRecord, error)
}

type Config struct {
	TotalsTTL  time.Duration
	Separator  string
	Unconsumed UnconsumedPredicate
	Logger     *logrus.Logger
}

// Reconciler groups, filters, paginates and plans consumption for one
// production order at a time.
type Reconciler struct {
	source    Source
	cache     TotalsCache
	filter    Filter
	ttl       time.Duration
	separator string
	log       *logrus.Entry
	tracer    trace.Tracer
}

func NewReconciler(source Source, cache TotalsCache, cfg Config) *Reconciler {
	if cfg.TotalsTTL <= 0 {
		cfg.TotalsTTL = DefaultTotalsTTL
	}
	if cfg.Separator == "" {
		cfg.Separator = DefaultIngredientSeparator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{
		source:    source,
		cache:     cache,
		filter:    NewFilter(cfg.Unconsumed),
		ttl:       cfg.TotalsTTL,
		separator: cfg.Separator,
		log:       logger.WithField("module", "consumption"),
		tracer:    otel.Tracer("mes-dashboard/consumption"),
	}
}

type snapshot struct {
	header  ProductionOrderHeader
	batches []BatchRecord
	totals  RecipeTotals
	rows    []ConsumptionRecord
}

func (s *snapshot) allocation(separator string) AllocationContext {
	return AllocationContext{
		OrderQuantity: s.header.ProductQuantity,
		Totals:        s.totals,
		Batches:       NewBatchIndex(s.batches),
		Separator:     separator,
	}
}

// GetPage returns one page of ingredient groups for the query.
func (r *Reconciler) GetPage(ctx context.Context, q PageQuery) (PageResult, error) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.GetPage", trace.WithAttributes(
		attribute.String("order", q.OrderNumber),
		attribute.Int("page", q.Page),
		attribute.Int("page_size", q.PageSize),
		attribute.String("mode", string(q.Mode)),
	))
	defer span.End()

	if err := validatePage(q); err != nil {
		return PageResult{}, endSpan(span, err)
	}

	snap, err := r.load(ctx, q.OrderNumber, true)
	if err != nil {
		return PageResult{}, endSpan(span, err)
	}

	groups, counts, err := r.groups(snap, q.Mode, q.BatchFacet)
	if err != nil {
		return PageResult{}, endSpan(span, err)
	}

	start, end, totalPages := Paginate(len(groups), q.Page, q.PageSize)
	items := make([]ConsumptionGroup, 0, end-start)
	actx := snap.allocation(r.separator)
	for _, g := range groups[start:end] {
		items = append(items, r.plan(actx, g))
	}

	return PageResult{
		Items:      items,
		TotalCount: len(groups),
		TotalPages: totalPages,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Counts:     counts,
	}, nil
}

// GetGroups returns every group matching the filter and facet, planned,
// without pagination.
func (r *Reconciler) GetGroups(ctx context.Context, orderNumber string, mode FilterMode, batchFacet string) ([]ConsumptionGroup, error) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.GetGroups", trace.WithAttributes(
		attribute.String("order", orderNumber),
		attribute.String("mode", string(mode)),
	))
	defer span.End()

	if err := validateOrder(orderNumber); err != nil {
		return nil, endSpan(span, err)
	}

	snap, err := r.load(ctx, orderNumber, true)
	if err != nil {
		return nil, endSpan(span, err)
	}

	groups, _, err := r.groups(snap, mode, batchFacet)
	if err != nil {
		return nil, endSpan(span, err)
	}

	actx := snap.allocation(r.separator)
	out := make([]ConsumptionGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, r.plan(actx, g))
	}
	return out, nil
}

// GetBatchFacets returns the merged batch list of an order.
func (r *Reconciler) GetBatchFacets(ctx context.Context, orderNumber string) ([]BatchRecord, error) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.GetBatchFacets", trace.WithAttributes(
		attribute.String("order", orderNumber),
	))
	defer span.End()

	if err := validateOrder(orderNumber); err != nil {
		return nil, endSpan(span, err)
	}

	var authoritative, observed []BatchRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authoritative, err = r.fetchBatches(gctx, orderNumber)
		return err
	})
	g.Go(func() error {
		var err error
		observed, err = r.fetchObserved(gctx, orderNumber)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, endSpan(span, err)
	}

	return MergeBatches(authoritative, observed), nil
}

// GetPlannedQuantity allocates one ingredient of an order, either to a
// single batch or summed over every batch of the order.
func (r *Reconciler) GetPlannedQuantity(ctx context.Context, q PlannedQuery) (Allocation, error) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.GetPlannedQuantity", trace.WithAttributes(
		attribute.String("order", q.OrderNumber),
		attribute.String("ingredient", q.IngredientCode),
	))
	defer span.End()

	if err := validateOrder(q.OrderNumber); err != nil {
		return Unavailable(), endSpan(span, err)
	}
	if strings.TrimSpace(q.IngredientCode) == "" {
		return Unavailable(), endSpan(span, &ValidationError{Field: "ingredient_code", Message: "is required"})
	}

	snap, err := r.load(ctx, q.OrderNumber, false)
	if err != nil {
		return Unavailable(), endSpan(span, err)
	}

	actx := snap.allocation(r.separator)
	switch {
	case q.BatchCode != nil:
		return actx.PlanBatch(q.IngredientCode, q.BatchCode), nil
	case q.NullBatch:
		return actx.PlanBatch(q.IngredientCode, nil), nil
	default:
		return actx.PlanOrder(q.IngredientCode), nil
	}
}

// InvalidateRecipeTotals drops the cached ingredient totals of an order.
func (r *Reconciler) InvalidateRecipeTotals(ctx context.Context, orderNumber string) error {
	if err := validateOrder(orderNumber); err != nil {
		return err
	}
	if r.cache == nil {
		return nil
	}
	if err := r.cache.Delete(ctx, orderNumber); err != nil {
		return &DependencyError{Source: "cache", Err: err}
	}
	return nil
}

func (r *Reconciler) groups(snap *snapshot, mode FilterMode, batchFacet string) ([]ConsumptionGroup, FacetCounts, error) {
	mode, err := ParseFilterMode(string(mode))
	if err != nil {
		return nil, FacetCounts{}, err
	}

	grouped := Group(FilterByBatch(snap.rows, batchFacet))
	for i := range grouped {
		if grouped[i].UnitOfMeasurement != "" {
			continue
		}
		if total, ok := snap.totals[IngredientKey(grouped[i].IngredientCode, r.separator)]; ok {
			grouped[i].UnitOfMeasurement = total.Unit
		}
	}

	return r.filter.Apply(grouped, mode), r.filter.Counts(grouped), nil
}

func (r *Reconciler) plan(actx AllocationContext, g ConsumptionGroup) ConsumptionGroup {
	g.Planned = actx.PlanGroup(g)
	g.ItemPlanned = make([]Allocation, len(g.Items))
	for i, item := range g.Items {
		g.ItemPlanned[i] = actx.PlanItem(item)
	}
	return g
}

// load fetches everything a request needs concurrently and waits for all of
// it. Rows are skipped when withRows is false.
func (r *Reconciler) load(ctx context.Context, orderNumber string, withRows bool) (*snapshot, error) {
	var (
		snap                    snapshot
		authoritative, observed []BatchRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		header, err := r.source.FetchOrderHeader(gctx, orderNumber)
		if err != nil {
			return &DependencyError{Source: "order header", Err: err}
		}
		snap.header = header
		return nil
	})
	g.Go(func() error {
		var err error
		authoritative, err = r.fetchBatches(gctx, orderNumber)
		return err
	})
	g.Go(func() error {
		var err error
		observed, err = r.fetchObserved(gctx, orderNumber)
		return err
	})
	g.Go(func() error {
		totals, err := r.recipeTotals(gctx, orderNumber)
		if err != nil {
			return err
		}
		snap.totals = totals
		return nil
	})
	if withRows {
		g.Go(func() error {
			rows, err := r.source.FetchConsumptionRows(gctx, orderNumber)
			if err != nil {
				return &DependencyError{Source: "consumption", Err: err}
			}
			snap.rows = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.batches = MergeBatches(authoritative, observed)
	return &snap, nil
}

func (r *Reconciler) fetchBatches(ctx context.Context, orderNumber string) ([]BatchRecord, error) {
	batches, err := r.source.FetchBatches(ctx, orderNumber)
	if err != nil {
		return nil, &DependencyError{Source: "batches", Err: err}
	}
	return batches, nil
}

func (r *Reconciler) fetchObserved(ctx context.Context, orderNumber string) ([]BatchRecord, error) {
	batches, err := r.source.FetchObservedBatches(ctx, orderNumber)
	if err != nil {
		return nil, &DependencyError{Source: "observed batches", Err: err}
	}
	return batches, nil
}

// recipeTotals reads through the cache. Cache failures are logged and the
// source is used instead.
func (r *Reconciler) recipeTotals(ctx context.Context, orderNumber string) (RecipeTotals, error) {
	log := r.log.WithField("order", orderNumber)

	if r.cache != nil {
		totals, ok, err := r.cache.Get(ctx, orderNumber)
		if err != nil {
			log.WithError(err).Warn("recipe totals cache read failed, falling back to source")
		} else if ok {
			return totals, nil
		}
	}

	raw, err := r.source.FetchRecipeIngredientTotals(ctx, orderNumber)
	if err != nil {
		return nil, &DependencyError{Source: "recipe", Err: err}
	}
	totals := rekeyTotals(raw, r.separator)

	if r.cache != nil {
		if err := r.cache.Set(ctx, orderNumber, totals, r.ttl); err != nil {
			log.WithError(err).Warn("recipe totals cache write failed")
		}
	}
	return totals, nil
}

// rekeyTotals keys totals by the stripped ingredient code, summing entries
// that collapse onto the same key.
func rekeyTotals(raw RecipeTotals, separator string) RecipeTotals {
	totals := make(RecipeTotals, len(raw))
	for code, t := range raw {
		if t.IngredientCode == "" {
			t.IngredientCode = code
		}
		key := IngredientKey(t.IngredientCode, separator)
		if existing, ok := totals[key]; ok {
			existing.Total = existing.Total.Add(t.Total)
			if existing.Unit == "" {
				existing.Unit = t.Unit
			}
			totals[key] = existing
			continue
		}
		t.IngredientCode = key
		totals[key] = t
	}
	return totals
}

// Paginate returns the slice bounds of a 1-based page and the page count.
// Pages past the end yield an empty range; no input overflows.
func Paginate(total, page, pageSize int) (start, end, totalPages int) {
	if pageSize <= 0 || total < 0 {
		return 0, 0, 0
	}
	totalPages = total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if page < 1 {
		page = 1
	}
	if page-1 >= totalPages {
		return total, total, totalPages
	}
	start = (page - 1) * pageSize
	end = total
	if pageSize < total-start {
		end = start + pageSize
	}
	return start, end, totalPages
}

func validateOrder(orderNumber string) error {
	if strings.TrimSpace(orderNumber) == "" {
		return &ValidationError{Field: "order_number", Message: "is required"}
	}
	return nil
}

func validatePage(q PageQuery) error {
	if err := validateOrder(q.OrderNumber); err != nil {
		return err
	}
	if q.Page < 1 {
		return &ValidationError{Field: "page", Message: fmt.Sprintf("must be at least 1, got %d", q.Page)}
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return &ValidationError{Field: "page_size", Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxPageSize, q.PageSize)}
	}
	return nil
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
