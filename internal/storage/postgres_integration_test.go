//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupPostgres(t *testing.T) *PostgresStorage {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("assist_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/assist_test?sslmode=disable", host, port.Port())
	s, err := OpenPostgres(connStr, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresReminders(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)
	now := time.Now().UTC().Truncate(time.Second)

	due := reminder("s1", "due", now.Add(-time.Minute))
	future := reminder("s1", "future", now.Add(time.Hour))
	require.NoError(t, s.CreateReminder(ctx, future))
	require.NoError(t, s.CreateReminder(ctx, due))
	assert.NotZero(t, due.ID)

	list, err := s.ListReminders(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "due", list[0].Message)
	assert.True(t, list[0].ScheduledAt.Equal(due.ScheduledAt))

	popped, err := s.PopDueReminder(ctx, "s1", now)
	require.NoError(t, err)
	require.NotNil(t, popped)
	assert.Equal(t, due.ID, popped.ID)

	popped, err = s.PopDueReminder(ctx, "s1", now)
	require.NoError(t, err)
	assert.Nil(t, popped)

	require.NoError(t, s.DeleteReminder(ctx, future.ID))
	assert.ErrorIs(t, s.DeleteReminder(ctx, future.ID), ErrReminderNotFound)
}

func TestPostgresSearchManual(t *testing.T) {
	ctx := context.Background()
	s := setupPostgres(t)

	require.NoError(t, s.AddManualPassage(ctx, "아반떼", "엔진오일은 10,000km마다 교환하십시오."))
	require.NoError(t, s.AddManualPassage(ctx, "아반떼", "엔진오일 교체 주기는 주행 조건에 따라 다릅니다."))
	require.NoError(t, s.AddManualPassage(ctx, "쏘나타", "엔진오일 용량은 4.5L입니다."))
	require.NoError(t, s.AddManualPassage(ctx, "", "100% 합성유 사용을 권장합니다."))

	got, err := s.SearchManual(ctx, "아반떼", "엔진오일 교체 주기", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "교체 주기")

	got, err = s.SearchManual(ctx, "아반떼", "100% 합성유", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
