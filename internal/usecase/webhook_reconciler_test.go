package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figures-hub/internal/domain"
	"figures-hub/internal/infrastructure/registry"
)

type capturingPublisher struct {
	events []domain.FigureUpdatedEvent
	err    error
}

func (p *capturingPublisher) PublishFigureUpdated(_ context.Context, event domain.FigureUpdatedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func newTestReconciler(api *fakeAPI, refs *registry.MemoryReferenceStore, publisher domain.EventPublisher) *WebhookReconciler {
	providerRegistry := NewProviderRegistry(api, slog.Default())
	return NewWebhookReconciler(providerRegistry, refs, publisher, slog.Default())
}

func TestWebhookReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()

	record := domain.Figure{
		ID:       "fts-bel-idps",
		FigureID: "idps",
		Provider: "fts",
		ISO3:     "bel",
		Year:     2024,
		Value:    500,
		Unit:     "people",
	}

	t.Run("missing data is a bad payload", func(t *testing.T) {
		reconciler := newTestReconciler(newFakeAPI(), registry.NewMemoryReferenceStore(), &capturingPublisher{})
		_, err := reconciler.Reconcile(ctx, domain.WebhookPayload{})
		assert.ErrorIs(t, err, domain.ErrBadPayload)
	})

	t.Run("new records invalidate the whole provider", func(t *testing.T) {
		api := newFakeAPI()
		refs := registry.NewMemoryReferenceStore()
		require.NoError(t, refs.Register(ctx, domain.FigureReference{
			EntityID: "node-12",
			Field:    "field_figures",
			ID:       domain.WildcardFigureID,
			Provider: "fts",
			Country:  "bel",
			Year:     domain.YearAny,
		}))
		publisher := &capturingPublisher{}
		reconciler := newTestReconciler(api, refs, publisher)

		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusNew, Data: record},
		}})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, []string{"node-12"}, result.AffectedEntities)
		require.Len(t, api.invalidated, 1)
		assert.Equal(t, []string{"keyfigures:fts"}, api.invalidated[0])
		require.Len(t, publisher.events, 1)
		assert.Equal(t, domain.WebhookStatusNew, publisher.events[0].Status)
		assert.NotEmpty(t, publisher.events[0].EventID)
	})

	t.Run("updates invalidate the figure and refresh stored values", func(t *testing.T) {
		api := newFakeAPI()
		refs := registry.NewMemoryReferenceStore()
		require.NoError(t, refs.Register(ctx, domain.FigureReference{
			EntityID: "node-7",
			Field:    "field_figures",
			ID:       "fts-bel-idps",
			Provider: "fts",
			Country:  "bel",
			Year:     2024,
			Value:    400,
		}))
		publisher := &capturingPublisher{}
		reconciler := newTestReconciler(api, refs, publisher)

		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusUpdated, Data: record},
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"node-7"}, result.AffectedEntities)
		require.Len(t, api.invalidated, 1)
		assert.Equal(t, []string{"keyfigures:fts:fts-bel-idps"}, api.invalidated[0])

		stored, err := refs.List(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, 500.0, stored[0].Value)
		assert.Equal(t, "people", stored[0].Unit)
	})

	t.Run("new records never match exact-id references", func(t *testing.T) {
		api := newFakeAPI()
		refs := registry.NewMemoryReferenceStore()
		require.NoError(t, refs.Register(ctx, domain.FigureReference{
			EntityID: "node-7",
			Field:    "field_figures",
			ID:       "fts-bel-idps",
			Provider: "fts",
			Country:  "bel",
			Year:     2024,
		}))
		reconciler := newTestReconciler(api, refs, &capturingPublisher{})

		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusNew, Data: record},
		}})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Processed)
		assert.Empty(t, result.AffectedEntities)
		assert.Empty(t, api.invalidated)
	})

	t.Run("affected entities are deduplicated across entries", func(t *testing.T) {
		api := newFakeAPI()
		refs := registry.NewMemoryReferenceStore()
		require.NoError(t, refs.Register(ctx, domain.FigureReference{
			EntityID: "node-12",
			Field:    "field_figures",
			ID:       domain.WildcardFigureID,
			Provider: "fts",
			Country:  "bel",
			Year:     domain.YearAny,
		}))
		reconciler := newTestReconciler(api, refs, &capturingPublisher{})

		second := record
		second.ID = "fts-bel-refugees"
		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusNew, Data: record},
			{Status: domain.WebhookStatusNew, Data: second},
		}})
		require.NoError(t, err)

		assert.Equal(t, 2, result.Processed)
		assert.Equal(t, []string{"node-12"}, result.AffectedEntities)
	})

	t.Run("publish failures do not fail the batch", func(t *testing.T) {
		api := newFakeAPI()
		refs := registry.NewMemoryReferenceStore()
		require.NoError(t, refs.Register(ctx, domain.FigureReference{
			EntityID: "node-12",
			Field:    "field_figures",
			ID:       domain.WildcardFigureID,
			Provider: "fts",
			Country:  "bel",
			Year:     domain.YearAny,
		}))
		publisher := &capturingPublisher{err: assert.AnError}
		reconciler := newTestReconciler(api, refs, publisher)

		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusNew, Data: record},
		}})
		require.NoError(t, err)
		assert.Equal(t, []string{"node-12"}, result.AffectedEntities)
	})

	t.Run("without registered references nothing is invalidated", func(t *testing.T) {
		api := newFakeAPI()
		reconciler := newTestReconciler(api, registry.NewMemoryReferenceStore(), &capturingPublisher{})

		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusNew, Data: record},
			{Status: domain.WebhookStatusUpdated, Data: record},
		}})
		require.NoError(t, err)

		assert.Equal(t, 2, result.Processed)
		assert.Empty(t, result.AffectedEntities)
		assert.Empty(t, api.invalidated)
	})

	t.Run("registration through the reconciler makes entries match", func(t *testing.T) {
		api := newFakeAPI()
		reconciler := newTestReconciler(api, registry.NewMemoryReferenceStore(), &capturingPublisher{})
		require.NoError(t, reconciler.RegisterReference(ctx, domain.FigureReference{
			EntityID: "node-12",
			Field:    "field_figures",
			ID:       domain.WildcardFigureID,
			Provider: "fts",
			Country:  "bel",
			Year:     domain.YearAny,
		}))

		result, err := reconciler.Reconcile(ctx, domain.WebhookPayload{Data: []domain.WebhookEntry{
			{Status: domain.WebhookStatusNew, Data: record},
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"node-12"}, result.AffectedEntities)
		require.Len(t, api.invalidated, 1)
	})
}

func TestWebhookReconciler_References(t *testing.T) {
	ctx := context.Background()

	wildcard := domain.FigureReference{
		EntityID: "node-12",
		Field:    "field_figures",
		ID:       domain.WildcardFigureID,
		Provider: "fts",
		Country:  "bel",
		Year:     domain.YearAny,
	}

	t.Run("register, list and unregister", func(t *testing.T) {
		reconciler := newTestReconciler(newFakeAPI(), registry.NewMemoryReferenceStore(), &capturingPublisher{})

		require.NoError(t, reconciler.RegisterReference(ctx, wildcard))

		refs, err := reconciler.ListReferences(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)

		require.NoError(t, reconciler.UnregisterReference(ctx, "node-12", "field_figures", domain.WildcardFigureID))

		refs, err = reconciler.ListReferences(ctx)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("incomplete references are rejected", func(t *testing.T) {
		reconciler := newTestReconciler(newFakeAPI(), registry.NewMemoryReferenceStore(), &capturingPublisher{})

		assert.ErrorIs(t, reconciler.RegisterReference(ctx, domain.FigureReference{ID: "a"}), domain.ErrBadPayload)
		assert.ErrorIs(t, reconciler.UnregisterReference(ctx, "node-1", "", "a"), domain.ErrBadPayload)
	})

	t.Run("wildcard references need a provider and country scope", func(t *testing.T) {
		reconciler := newTestReconciler(newFakeAPI(), registry.NewMemoryReferenceStore(), &capturingPublisher{})

		unscoped := wildcard
		unscoped.Country = ""
		assert.ErrorIs(t, reconciler.RegisterReference(ctx, unscoped), domain.ErrBadPayload)
	})

	t.Run("unregistering an unknown reference reports not found", func(t *testing.T) {
		reconciler := newTestReconciler(newFakeAPI(), registry.NewMemoryReferenceStore(), &capturingPublisher{})

		err := reconciler.UnregisterReference(ctx, "node-1", "field_figures", "a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
