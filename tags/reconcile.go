package tags

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/logger"
)

// Reconciler syncs a Taggable's dirty tag lists to the store.
type Reconciler struct {
	store  Store
	logger *zap.SugaredLogger
}

// NewReconciler creates a Reconciler. A nil logger disables logging.
func NewReconciler(store Store, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger.OrNop(log),
	}
}

// Reconcile makes the persisted taggings of every dirty list match the list
// exactly, scoped to the list's (context, tagger), inside one transaction.
// Clean lists cause no reads or writes. Lists are marked committed only
// after the transaction commits; on error nothing is persisted and the
// lists stay dirty.
func (r *Reconciler) Reconcile(ctx context.Context, t *Taggable) error {
	pending := t.pending()
	if len(pending) == 0 {
		return nil
	}

	log := logger.FromContext(ctx, r.logger).With(
		logger.FieldReconcileID, uuid.NewString(),
		logger.FieldTaggable, t.stored.String(),
	)

	var deleted, created int64
	err := r.store.WithinTx(ctx, func(tx Tx) error {
		for _, p := range pending {
			d, c, err := r.reconcileScope(ctx, tx, p.scope, p.list.Names(), log)
			if err != nil {
				return err
			}
			deleted += d
			created += c
		}
		return nil
	})
	if err != nil {
		log.Warnw("Tag reconciliation rolled back", logger.FieldError, err)
		return errors.Wrapf(err, "failed to reconcile tags for %s", t.ref)
	}

	for _, p := range pending {
		p.list.Committed()
	}

	log.Infow("Tags reconciled",
		logger.FieldCount, len(pending),
		logger.FieldDeleted, deleted,
		logger.FieldCreated, created,
	)
	return nil
}

// reconcileScope prunes names that left the list, then inserts names that
// are not yet present, comparing case-insensitively.
func (r *Reconciler) reconcileScope(ctx context.Context, tx Tx, scope Scope, names []string, log *zap.SugaredLogger) (int64, int64, error) {
	deleted, err := tx.PruneScope(ctx, scope, names)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to prune context %q", scope.Context)
	}

	existing, err := tx.ScopeNames(ctx, scope)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to read context %q", scope.Context)
	}
	present := make(map[string]struct{}, len(existing)+len(names))
	for _, name := range existing {
		present[strings.ToLower(name)] = struct{}{}
	}

	var created int64
	for _, name := range names {
		folded := strings.ToLower(name)
		if _, ok := present[folded]; ok {
			continue
		}

		tag, err := tx.FindOrCreateTag(ctx, folded)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "failed to resolve tag %q", name)
		}
		tagging := &Tagging{
			TagID:    tag.ID,
			Name:     name,
			Taggable: scope.Taggable,
			Context:  scope.Context,
			Tagger:   scope.Tagger,
		}
		if err := tx.CreateTagging(ctx, tagging); err != nil {
			return 0, 0, errors.Wrapf(err, "failed to tag with %q", name)
		}
		present[folded] = struct{}{}
		created++

		log.Debugw("Tag added",
			logger.FieldTag, name,
			logger.FieldContext, scope.Context,
			logger.FieldTagger, scope.Tagger.String(),
		)
	}

	if deleted > 0 {
		log.Debugw("Tags pruned",
			logger.FieldDeleted, deleted,
			logger.FieldContext, scope.Context,
			logger.FieldTagger, scope.Tagger.String(),
		)
	}
	return deleted, created, nil
}
