package repo_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/internal/testinfra"
)

func TestRecordDuplicateDeliveryReturnsExistingRow(t *testing.T) {
	ctx := context.Background()
	events := repo.NewPaymentEventRepo(testinfra.Pool)

	first, err := events.Record(ctx, "evt_dup_1", "invoice.payment_succeeded",
		json.RawMessage(`{"amount":4900}`))
	require.NoError(t, err)
	require.False(t, first.Processed)

	// Stripe redelivers the same event id with the same body
	second, err := events.Record(ctx, "evt_dup_1", "invoice.payment_succeeded",
		json.RawMessage(`{"amount":4900}`))
	require.NoError(t, err)
	require.Equal(t, first.StripeEventID, second.StripeEventID)
	require.Equal(t, first.CreatedAt, second.CreatedAt, "existing row untouched")
}

func TestDuplicateDeliveryDoesNotResetProcessed(t *testing.T) {
	ctx := context.Background()
	events := repo.NewPaymentEventRepo(testinfra.Pool)

	_, err := events.Record(ctx, "evt_dup_2", "checkout.session.completed", nil)
	require.NoError(t, err)

	processed, err := events.IsProcessed(ctx, "evt_dup_2")
	require.NoError(t, err)
	require.False(t, processed)

	_, err = events.MarkProcessed(ctx, "evt_dup_2", nil, nil)
	require.NoError(t, err)

	redelivered, err := events.Record(ctx, "evt_dup_2", "checkout.session.completed", nil)
	require.NoError(t, err)
	require.True(t, redelivered.Processed)

	processed, err = events.IsProcessed(ctx, "evt_dup_2")
	require.NoError(t, err)
	require.True(t, processed)
}

func TestMarkProcessedKeepsLinksOnRepeat(t *testing.T) {
	ctx := context.Background()
	events := repo.NewPaymentEventRepo(testinfra.Pool)

	site := createSite(t, uniqueSlug("evt-link"))

	_, err := events.Record(ctx, "evt_link_1", "checkout.session.completed", nil)
	require.NoError(t, err)

	marked, err := events.MarkProcessed(ctx, "evt_link_1", &site.CustomerID, &site.ID)
	require.NoError(t, err)
	require.Equal(t, site.ID, *marked.SiteID)
	require.Equal(t, site.CustomerID, *marked.CustomerID)

	// a repeat without links must not wipe the originals
	marked, err = events.MarkProcessed(ctx, "evt_link_1", nil, nil)
	require.NoError(t, err)
	require.Equal(t, site.ID, *marked.SiteID)
	require.Equal(t, site.CustomerID, *marked.CustomerID)
}

func TestIsProcessedIsFalseForUnknownEvent(t *testing.T) {
	ctx := context.Background()
	events := repo.NewPaymentEventRepo(testinfra.Pool)

	processed, err := events.IsProcessed(ctx, "evt_never_seen")
	require.NoError(t, err)
	require.False(t, processed)
}
