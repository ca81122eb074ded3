package tags

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/logger"
)

// Service is the host-facing entry point: it hands out Taggables and runs
// the post-save reconciliation hook.
type Service struct {
	store      Store
	registry   *Registry
	parser     Parser
	reconciler *Reconciler
	logger     *zap.SugaredLogger
}

// Option configures a Service.
type Option func(*Service)

// WithParser sets the parser used by every tag list the Service creates.
func WithParser(p Parser) Option {
	return func(s *Service) { s.parser = p }
}

// WithLogger sets the Service logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) { s.logger = logger.OrNop(l) }
}

// NewService wires a Service over store. A nil registry is replaced by a
// lenient empty one.
func NewService(store Store, registry *Registry, opts ...Option) *Service {
	if registry == nil {
		registry = NewRegistry(false)
	}
	s := &Service{
		store:    store,
		registry: registry,
		parser:   NewParser(DefaultDelimiter),
		logger:   logger.OrNop(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = NewReconciler(store, s.logger)
	return s
}

// Registry returns the kind registry.
func (s *Service) Registry() *Registry { return s.registry }

// Parser returns the configured parser.
func (s *Service) Parser() Parser { return s.parser }

// Taggable returns fresh tagging working state for ref.
func (s *Service) Taggable(ref Ref) (*Taggable, error) {
	stored, err := s.registry.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return newTaggable(ref, stored, s.store, s.registry, s.parser), nil
}

// ReconcileTags is the hook a host invokes after persisting the entity.
func (s *Service) ReconcileTags(ctx context.Context, t *Taggable) error {
	return s.reconciler.Reconcile(ctx, t)
}

// RemoveTaggable deletes every tagging of ref. Hosts call it when the
// entity is destroyed.
func (s *Service) RemoveTaggable(ctx context.Context, ref Ref) (int64, error) {
	stored, err := s.registry.Resolve(ref)
	if err != nil {
		return 0, err
	}
	n, err := s.store.RemoveTaggings(ctx, stored)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to remove taggings of %s", ref)
	}
	s.logger.Debugw("Taggings removed", logger.FieldTaggable, stored.String(), logger.FieldDeleted, n)
	return n, nil
}
