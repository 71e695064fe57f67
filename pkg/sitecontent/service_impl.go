package sitecontent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/idgen"
)

// service implements the Service interface
type service struct {
	repository Repository
	eventSink  EventSink
	hooks      *Hooks
	ids        IDGenerator
	logger     *zap.Logger
	now        func() time.Time

	clockMu sync.Mutex
	lastTS  time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithHooks sets the lifecycle hooks for the service
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		s.hooks = hooks
	}
}

// WithIDGenerator replaces the default monotonic id generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *service) {
		s.ids = gen
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock sets the time source used for createdAt and updatedAt
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		now:       time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.ids == nil {
		s.ids = &idgen.MonotonicGenerator{Now: s.now}
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("sitecontent")

	return s, nil
}

// timestamp returns the current time at millisecond precision. Successive
// calls never return the same or an earlier value; when the clock has not
// moved on, the previous timestamp is bumped by one millisecond.
func (s *service) timestamp() string {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UTC().Truncate(time.Millisecond)
	if !t.After(s.lastTS) {
		t = s.lastTS.Add(time.Millisecond)
	}
	s.lastTS = t
	return FormatTimestamp(t)
}

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if err := s.hooks.executeBeforeCreate(ctx, &req); err != nil {
		s.fail(ctx, "create", err)
		return nil, err
	}
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = DefaultStatus
	}

	now := s.timestamp()
	item := &Item{
		ID:        s.ids.NewID(string(req.Type), req.Slug),
		Type:      req.Type,
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   cloneDocument(req.Content),
		Metadata:  cloneDocument(req.Metadata),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ValidateItem(*item); err != nil {
		err = &ItemError{ID: item.ID, Op: "create", Err: err}
		s.fail(ctx, "create", err)
		return nil, err
	}

	if err := s.repository.PutIfAbsent(ctx, item); err != nil {
		err = &ItemError{ID: item.ID, Op: "create", Err: err}
		s.fail(ctx, "create", err)
		return nil, err
	}

	s.logger.Debug("item created", zap.String("id", item.ID), zap.String("type", string(item.Type)))

	if err := s.eventSink.ItemCreated(ctx, item); err != nil {
		s.logger.Warn("event sink failed", zap.String("event", "created"), zap.String("id", item.ID), zap.Error(err))
	}
	if err := s.hooks.executeAfterCreate(ctx, item); err != nil {
		s.logger.Warn("after-create hook failed", zap.String("id", item.ID), zap.Error(err))
	}

	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	if id == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "id", Reason: "is required"}}}
	}

	item, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, &ItemError{ID: id, Op: "get", Err: err}
	}
	return item, nil
}

func (s *service) GetItemBySlug(ctx context.Context, slug string, contentType *ContentType) (*Item, error) {
	verr := &ValidationError{}
	if slug == "" {
		verr.add("slug", "is required")
	}
	if contentType != nil && !contentType.IsValid() {
		verr.add("type", "must be one of "+joinValues(ContentTypes))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	filter := Where(FieldSlug, slug)
	if contentType != nil {
		filter = filter.And(FieldType, string(*contentType))
	}

	items, err := s.repository.Scan(ctx, filter)
	if err != nil {
		err = &ItemError{Op: "get_by_slug", Err: err}
		s.fail(ctx, "get_by_slug", err)
		return nil, err
	}
	if len(items) == 0 {
		return nil, &ItemError{Op: "get_by_slug", Err: ErrNotFound}
	}
	return items[0], nil
}

func (s *service) ListItems(ctx context.Context, req ListItemsRequest) ([]*Item, error) {
	verr := &ValidationError{}
	if req.Type != nil && !req.Type.IsValid() {
		verr.add("type", "must be one of "+joinValues(ContentTypes))
	}
	if req.Status != nil && !req.Status.IsValid() {
		verr.add("status", "must be one of "+joinValues(ContentStatuses))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	items, err := s.repository.Scan(ctx, FilterFor(req))
	if err != nil {
		err = &ItemError{Op: "list", Err: err}
		s.fail(ctx, "list", err)
		return nil, err
	}
	if items == nil {
		items = []*Item{}
	}
	return items, nil
}

// UpdateItem always refreshes updatedAt, so a request with no fields still
// performs a write.
func (s *service) UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*Item, error) {
	if id == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "id", Reason: "is required"}}}
	}
	if err := ValidateUpdate(req); err != nil {
		return nil, err
	}

	item, err := s.repository.Update(ctx, id, assignmentsFor(req, s.timestamp()))
	if err != nil {
		err = &ItemError{ID: id, Op: "update", Err: err}
		s.fail(ctx, "update", err)
		return nil, err
	}

	if err := s.eventSink.ItemUpdated(ctx, item); err != nil {
		s.logger.Warn("event sink failed", zap.String("event", "updated"), zap.String("id", id), zap.Error(err))
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id string) (bool, *Item, error) {
	if id == "" {
		return false, nil, nil
	}

	prior, err := s.repository.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		err = &ItemError{ID: id, Op: "delete", Err: err}
		s.fail(ctx, "delete", err)
		return false, nil, err
	}

	if err := s.eventSink.ItemDeleted(ctx, prior); err != nil {
		s.logger.Warn("event sink failed", zap.String("event", "deleted"), zap.String("id", id), zap.Error(err))
	}
	return true, prior, nil
}

func (s *service) BulkCreateItems(ctx context.Context, reqs []CreateItemRequest) (*BulkCreateResult, error) {
	result := &BulkCreateResult{Outcomes: make([]BulkItemOutcome, 0, len(reqs))}

	for i, req := range reqs {
		outcome := BulkItemOutcome{Index: i, Input: req}

		if err := ctx.Err(); err != nil {
			outcome.Err = err
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}

		item, err := s.CreateItem(ctx, req)
		if err != nil {
			s.logger.Warn("bulk create item failed",
				zap.Int("index", i),
				zap.String("type", string(req.Type)),
				zap.String("slug", req.Slug),
				zap.Error(err))
			outcome.Err = err
		} else {
			outcome.Item = item
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if failed := len(result.Failed()); failed > 0 {
		s.logger.Info("bulk create finished with failures",
			zap.Int("total", len(reqs)),
			zap.Int("failed", failed))
	}

	return result, ctx.Err()
}

func (s *service) fail(ctx context.Context, op string, err error) {
	s.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
	s.hooks.executeOnError(ctx, op, err)
}
