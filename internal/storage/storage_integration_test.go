//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres runs a throwaway Postgres container, connects and applies the
// embedded migrations.
func startPostgres(ctx context.Context, t *testing.T) *DB {
	t.Helper()

	pgc, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("outage"),
		tcpostgres.WithUsername("outage"),
		tcpostgres.WithPassword("outage"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pgc)
	require.NoError(t, err, "start postgres container")

	dsn, err := pgc.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zerolog.Nop()
	database, err := New(ctx, dsn, PoolOptions{MaxConns: 2}, &logger)
	require.NoError(t, err, "connect to postgres")
	t.Cleanup(database.Close)

	require.NoError(t, database.Migrate(ctx), "apply migrations")

	return database
}

func findRecord(t *testing.T, records []EmergencyRecord, title string) EmergencyRecord {
	t.Helper()

	for _, r := range records {
		if r.Title == title {
			return r
		}
	}

	t.Fatalf("record %q not found", title)

	return EmergencyRecord{}
}

func TestReconcileEmergenciesLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database := startPostgres(ctx, t)

	started := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	since := started.Add(-time.Hour)
	first := ObservedEmergency{StartedTime: started, Title: "г.Ереван, ул.Абовяна 5"}
	second := ObservedEmergency{StartedTime: started.Add(30 * time.Minute), Title: "г.Гюмри, ул.Ширакаци 3"}

	// Pass 1: both rows appear open.
	require.NoError(t, database.ReconcileEmergencies(ctx, "grid", []ObservedEmergency{first, second}))

	records, err := database.ListEmergencies(ctx, "grid", since)
	require.NoError(t, err)
	require.Len(t, records, 2)

	firstID := findRecord(t, records, first.Title).ID
	secondID := findRecord(t, records, second.Title).ID

	for _, r := range records {
		assert.Nil(t, r.FinishedTime, "fresh record %q must be open", r.Title)
	}

	// Pass 2: only the first row is still listed; the second closes.
	require.NoError(t, database.ReconcileEmergencies(ctx, "grid", []ObservedEmergency{first}))

	records, err = database.ListEmergencies(ctx, "grid", since)
	require.NoError(t, err)
	require.Len(t, records, 2, "records are closed, never deleted")

	stillOpen := findRecord(t, records, first.Title)
	assert.Equal(t, firstID, stillOpen.ID, "re-observed record keeps its id")
	assert.Nil(t, stillOpen.FinishedTime)

	closed := findRecord(t, records, second.Title)
	assert.Equal(t, secondID, closed.ID)
	assert.NotNil(t, closed.FinishedTime, "absent record is closed by the reset")

	// Pass 3: the second row returns and reopens under its original id.
	require.NoError(t, database.ReconcileEmergencies(ctx, "grid", []ObservedEmergency{second}))

	records, err = database.ListEmergencies(ctx, "grid", since)
	require.NoError(t, err)
	require.Len(t, records, 2)

	reopened := findRecord(t, records, second.Title)
	assert.Equal(t, secondID, reopened.ID, "reopening must not create a new row")
	assert.Nil(t, reopened.FinishedTime)
	assert.NotNil(t, findRecord(t, records, first.Title).FinishedTime)
}

func TestReconcileEmergenciesIsolatesSources(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database := startPostgres(ctx, t)

	started := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	observed := []ObservedEmergency{{StartedTime: started, Title: "г.Ереван, ул.Абовяна 5"}}

	require.NoError(t, database.ReconcileEmergencies(ctx, "grid", observed))
	require.NoError(t, database.ReconcileEmergencies(ctx, "water", nil))

	records, err := database.ListEmergencies(ctx, "grid", started.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].FinishedTime, "another source's reset must not close this source's rows")
}

func TestMarkEmergencyNotifiedSetOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database := startPostgres(ctx, t)

	started := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	since := started.Add(-time.Hour)
	observed := []ObservedEmergency{{StartedTime: started, Title: "г.Ереван, ул.Абовяна 5"}}

	require.NoError(t, database.ReconcileEmergencies(ctx, "grid", observed))

	records, err := database.ListEmergencies(ctx, "grid", since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	id := records[0].ID

	require.NoError(t, database.MarkEmergencyNotified(ctx, id, 101, PhaseStarted))
	require.NoError(t, database.MarkEmergencyNotified(ctx, id, 202, PhaseStarted))

	// Close it and stamp the finished phase twice as well.
	require.NoError(t, database.ReconcileEmergencies(ctx, "grid", nil))
	require.NoError(t, database.MarkEmergencyNotified(ctx, id, 303, PhaseFinished))
	require.NoError(t, database.MarkEmergencyNotified(ctx, id, 404, PhaseFinished))

	records, err = database.ListEmergencies(ctx, "grid", since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(101), records[0].StartedMsgID, "first started mark wins")
	assert.Equal(t, int64(303), records[0].FinishedMsgID, "first finished mark wins")
}

func TestMessageLedger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database := startPostgres(ctx, t)

	seen, err := database.HasMessage(ctx, "grid", "hash-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, database.InsertMessage(ctx, MessageEntry{
		Source:       "grid",
		Hash:         "hash-1",
		Body:         "первый отчёт",
		MessageGroup: "2026-03-15",
		TGMessageID:  10,
	}))

	seen, err = database.HasMessage(ctx, "grid", "hash-1")
	require.NoError(t, err)
	assert.True(t, seen)

	latest, err := database.LatestGroupMessage(ctx, "grid", "2026-03-16")
	require.NoError(t, err)
	assert.Nil(t, latest, "foreign group has no rows")

	// A later row for the same group becomes the latest one.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, database.InsertMessage(ctx, MessageEntry{
		Source:       "grid",
		Hash:         "hash-2",
		Body:         "второй отчёт",
		MessageGroup: "2026-03-15",
		TGMessageID:  11,
	}))

	latest, err = database.LatestGroupMessage(ctx, "grid", "2026-03-15")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "hash-2", latest.Hash)
	assert.Equal(t, int64(11), latest.TGMessageID)
}
