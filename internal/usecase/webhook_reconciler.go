package usecase

import (
	"context"
	"log/slog"
	"time"

	"figures-hub/internal/domain"

	"github.com/google/uuid"
)

// WebhookReconciler turns upstream change notifications into cache
// invalidations and reference refreshes. New records broaden a wildcard
// selector's scope, so they invalidate the whole provider; updates to one
// known figure invalidate that figure only. Invalidation is idempotent, so
// replaying a batch cannot corrupt state.
type WebhookReconciler struct {
	registry *ProviderRegistry
	refs     domain.ReferenceStore
	events   domain.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewWebhookReconciler creates the reconciler.
func NewWebhookReconciler(registry *ProviderRegistry, refs domain.ReferenceStore, events domain.EventPublisher, logger *slog.Logger) *WebhookReconciler {
	return &WebhookReconciler{
		registry: registry,
		refs:     refs,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// ReconcileResult summarizes one processed batch.
type ReconcileResult struct {
	Processed        int      `json:"processed"`
	AffectedEntities []string `json:"affected_entities"`
}

// Reconcile processes one webhook batch. Each entry is matched against the
// stored figure references; matched entries trigger the appropriate cache
// invalidation, stored values are refreshed for exact-id references, and
// one event per affected record is published.
func (w *WebhookReconciler) Reconcile(ctx context.Context, payload domain.WebhookPayload) (*ReconcileResult, error) {
	if payload.Data == nil {
		return nil, domain.ErrBadPayload
	}

	var affected []string
	seenEntity := make(map[string]struct{})

	for _, entry := range payload.Data {
		record := entry.Data
		isNew := entry.Status == domain.WebhookStatusNew

		matches, err := w.refs.Matching(ctx, record, !isNew)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}

		if isNew {
			if err := w.registry.InvalidateByProvider(ctx, record.Provider); err != nil {
				return nil, err
			}
		} else {
			if err := w.registry.InvalidateByFigure(ctx, record); err != nil {
				return nil, err
			}
			if err := w.refs.UpdateValue(ctx, record.ID, record.Value, record.ValueText, record.Unit); err != nil {
				return nil, err
			}
		}

		var entities []string
		for _, ref := range matches {
			if _, dup := seenEntity[ref.EntityID]; !dup {
				seenEntity[ref.EntityID] = struct{}{}
				affected = append(affected, ref.EntityID)
			}
			entities = append(entities, ref.EntityID)
		}

		event := domain.FigureUpdatedEvent{
			EventID:   uuid.NewString(),
			Status:    entry.Status,
			FigureID:  record.ID,
			Provider:  record.Provider,
			Country:   record.ISO3,
			Year:      record.Year,
			Entities:  entities,
			CreatedAt: w.now(),
		}
		if err := w.events.PublishFigureUpdated(ctx, event); err != nil {
			// Invalidation already happened; a failed announcement only
			// delays downstream refreshes.
			w.logger.WarnContext(ctx, "publishing figure update failed",
				"figure", record.ID, "error", err)
		}
	}

	return &ReconcileResult{
		Processed:        len(payload.Data),
		AffectedEntities: affected,
	}, nil
}

// RegisterReference stores a figure selector for a piece of content, so
// later webhook batches can be matched back to it. Wildcard references
// need a provider and country scope to match on.
func (w *WebhookReconciler) RegisterReference(ctx context.Context, ref domain.FigureReference) error {
	if ref.EntityID == "" || ref.Field == "" || ref.ID == "" {
		return domain.ErrBadPayload
	}
	if ref.ID == domain.WildcardFigureID && (ref.Provider == "" || ref.Country == "") {
		return domain.ErrBadPayload
	}
	return w.refs.Register(ctx, ref)
}

// UnregisterReference removes one stored figure selector.
func (w *WebhookReconciler) UnregisterReference(ctx context.Context, entityID, field, figureID string) error {
	if entityID == "" || field == "" || figureID == "" {
		return domain.ErrBadPayload
	}
	return w.refs.Unregister(ctx, entityID, field, figureID)
}

// ListReferences returns every stored figure selector.
func (w *WebhookReconciler) ListReferences(ctx context.Context) ([]domain.FigureReference, error) {
	return w.refs.List(ctx)
}
