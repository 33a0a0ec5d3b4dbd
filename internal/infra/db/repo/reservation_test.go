package repo_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/internal/testinfra"
)

func TestReserveWinsOnFreeSlug(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("fresh")

	reserved, err := reservations.Reserve(ctx, slug, optional("a@example.com"), optional("sess-1"))
	require.NoError(t, err)
	require.True(t, reserved)

	res, err := reservations.Get(ctx, slug)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, res.Converted)
	require.WithinDuration(t, time.Now().Add(repo.HoldMinutes*time.Minute), res.ExpiresAt, 10*time.Second)
}

func TestReserveLosesWhileHoldIsLive(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("held")

	reserved, err := reservations.Reserve(ctx, slug, nil, optional("sess-owner"))
	require.NoError(t, err)
	require.True(t, reserved)

	reserved, err = reservations.Reserve(ctx, slug, nil, optional("sess-rival"))
	require.NoError(t, err)
	require.False(t, reserved)

	res, err := reservations.Get(ctx, slug)
	require.NoError(t, err)
	require.Equal(t, "sess-owner", *res.SessionID)
}

func TestConcurrentReserveHasExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	slug := uniqueSlug("race")

	const contenders = 8
	wins := make(chan bool, contenders)
	errc := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reservations := repo.NewReservationRepo(testinfra.Pool)
			sess := uniqueSessionID(n)
			won, err := reservations.Reserve(ctx, slug, nil, &sess)
			if err != nil {
				errc <- err
				return
			}
			wins <- won
		}(i)
	}
	wg.Wait()
	close(wins)
	close(errc)

	for err := range errc {
		require.NoError(t, err)
	}
	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}

func TestReserveTakesOverExpiredHold(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("expired")

	reserved, err := reservations.Reserve(ctx, slug, nil, optional("sess-first"))
	require.NoError(t, err)
	require.True(t, reserved)

	// the first holder filled in some payload before lapsing
	_, err = reservations.Update(ctx, slug, optional("electrician"),
		json.RawMessage(`{"businessName":"Stale"}`), nil)
	require.NoError(t, err)

	backdateReservation(t, slug, 5)

	reserved, err = reservations.Reserve(ctx, slug, optional("new@example.com"), optional("sess-second"))
	require.NoError(t, err)
	require.True(t, reserved)

	res, err := reservations.Get(ctx, slug)
	require.NoError(t, err)
	require.Equal(t, "sess-second", *res.SessionID)
	// take-over resets the previous holder's progress
	require.Nil(t, res.TemplateID)
	require.Nil(t, res.IntakeData)
	require.True(t, res.ExpiresAt.After(time.Now()))
}

func TestConvertedReservationCannotBeTakenOver(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("converted")

	reserved, err := reservations.Reserve(ctx, slug, nil, optional("sess-buyer"))
	require.NoError(t, err)
	require.True(t, reserved)

	converted, err := reservations.Convert(ctx, slug)
	require.NoError(t, err)
	require.True(t, converted.Converted)

	// even long after the hold window, converted means gone for good
	backdateReservation(t, slug, 120)

	reserved, err = reservations.Reserve(ctx, slug, nil, optional("sess-late"))
	require.NoError(t, err)
	require.False(t, reserved)

	available, err := reservations.IsAvailable(ctx, slug)
	require.NoError(t, err)
	require.False(t, available)
}

func TestExtendOnlyForOwningLiveSession(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("extend")

	_, err := reservations.Reserve(ctx, slug, nil, optional("sess-owner"))
	require.NoError(t, err)

	extended, err := reservations.Extend(ctx, slug, "sess-owner")
	require.NoError(t, err)
	require.True(t, extended)

	extended, err = reservations.Extend(ctx, slug, "sess-other")
	require.NoError(t, err)
	require.False(t, extended)

	backdateReservation(t, slug, 1)

	extended, err = reservations.Extend(ctx, slug, "sess-owner")
	require.NoError(t, err)
	require.False(t, extended, "an expired hold cannot be revived")
}

func TestCleanupExpiredSparesConvertedAndLiveHolds(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)

	lapsed := uniqueSlug("sweep-lapsed")
	live := uniqueSlug("sweep-live")
	sold := uniqueSlug("sweep-sold")

	for _, s := range []string{lapsed, live, sold} {
		won, err := reservations.Reserve(ctx, s, nil, optional("sess-sweep"))
		require.NoError(t, err)
		require.True(t, won)
	}
	_, err := reservations.Convert(ctx, sold)
	require.NoError(t, err)
	backdateReservation(t, lapsed, 5)
	backdateReservation(t, sold, 5)

	removed, err := reservations.CleanupExpired(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, removed, 1)

	res, err := reservations.Get(ctx, lapsed)
	require.NoError(t, err)
	require.Nil(t, res)

	res, err = reservations.Get(ctx, live)
	require.NoError(t, err)
	require.NotNil(t, res)

	res, err = reservations.Get(ctx, sold)
	require.NoError(t, err)
	require.NotNil(t, res, "converted reservations survive the sweep")
}

func TestReservationLifecycleAcrossThreeParties(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("smith-plumbing")

	won, err := reservations.Reserve(ctx, slug, optional("a@b.com"), optional("sess-a"))
	require.NoError(t, err)
	require.True(t, won)

	// a rival with a different email sees the slug unavailable
	available, err := reservations.IsAvailable(ctx, slug)
	require.NoError(t, err)
	require.False(t, available)
	won, err = reservations.Reserve(ctx, slug, optional("rival@b.com"), optional("sess-b"))
	require.NoError(t, err)
	require.False(t, won)

	// the hold lapses without conversion and a third party takes it
	backdateReservation(t, slug, 1)

	available, err = reservations.IsAvailable(ctx, slug)
	require.NoError(t, err)
	require.True(t, available)

	won, err = reservations.Reserve(ctx, slug, optional("third@c.com"), optional("sess-c"))
	require.NoError(t, err)
	require.True(t, won)

	res, err := reservations.Get(ctx, slug)
	require.NoError(t, err)
	require.Equal(t, "third@c.com", *res.Email)
}

func TestUpdateKeepsExistingPayloadOnNilArguments(t *testing.T) {
	ctx := context.Background()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	slug := uniqueSlug("payload")

	_, err := reservations.Reserve(ctx, slug, nil, optional("sess-payload"))
	require.NoError(t, err)

	res, err := reservations.Update(ctx, slug, optional("plumber"),
		json.RawMessage(`{"businessName":"Drains R Us"}`), nil)
	require.NoError(t, err)
	require.Equal(t, "plumber", *res.TemplateID)

	res, err = reservations.Update(ctx, slug, nil, nil,
		json.RawMessage(`{"hero":{"headline":"Hi"}}`))
	require.NoError(t, err)
	require.Equal(t, "plumber", *res.TemplateID)
	require.JSONEq(t, `{"businessName":"Drains R Us"}`, string(res.IntakeData))
	require.JSONEq(t, `{"hero":{"headline":"Hi"}}`, string(res.GeneratedContent))
}
