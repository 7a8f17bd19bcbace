package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugaemi/mergeboss-server/internal/account"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}
	return url
}

func setupTestStore(t *testing.T) Store {
	t.Helper()
	url := getTestDatabaseURL(t)
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)

	// Clean up tables for test isolation
	_, err = s.pool.Exec(ctx, "DELETE FROM accounts; DELETE FROM leaderboard_records")
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestPostgresStore_Accounts(t *testing.T) {
	getTestDatabaseURL(t)
	testAccountStore(t, setupTestStore)
}

func TestPostgresStore_Records(t *testing.T) {
	getTestDatabaseURL(t)
	testRecordStore(t, setupTestStore)
}

func TestPostgresStore_DuplicateUserID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acc1 := account.NewPlayerAccount("user-duplicate", "유저1")
	require.NoError(t, s.Create(ctx, acc1))

	acc2 := account.NewPlayerAccount("user-duplicate", "유저2")
	assert.Error(t, s.Create(ctx, acc2))
}
