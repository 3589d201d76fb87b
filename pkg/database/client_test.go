package database

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/reflector-core/reflector/ent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient creates a test database client against a throwaway
// testcontainers-backed Postgres instance, auto-migrating the ent schema
// directly (no golang-migrate step, since this repo doesn't run one).
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("reflector_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := sql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	db := drv.DB()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	entClient := ent.NewClient(ent.Driver(drv))

	err = entClient.Schema.Create(ctx)
	require.NoError(t, err)

	err = EnsureSearchIndexes(ctx, drv)
	require.NoError(t, err)

	client := NewClientFromEnt(entClient, db)
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestDatabaseClient_ConnectionPool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.DB().PingContext(ctx)
	require.NoError(t, err)

	health, err := Health(ctx, client.DB())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxOpenConns, 0)
}

func TestFullTextSearch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	t1, err := client.Transcript.Create().
		SetID("t1").
		SetSourceKind("file").
		SetTitle("Critical error in production cluster").
		SetShortSummary("Pod failures investigated").
		Save(ctx)
	require.NoError(t, err)

	t2, err := client.Transcript.Create().
		SetID("t2").
		SetSourceKind("file").
		SetTitle("Weekly sync").
		SetShortSummary("Warning: high memory usage discussed").
		Save(ctx)
	require.NoError(t, err)

	rows, err := client.DB().QueryContext(ctx,
		`SELECT transcript_id FROM transcripts
		WHERE to_tsvector('english', title) @@ to_tsquery('english', $1)`,
		"error & production",
	)
	require.NoError(t, err)
	defer rows.Close()

	var results []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		results = append(results, id)
	}
	assert.Equal(t, []string{t1.ID}, results)

	rows2, err := client.DB().QueryContext(ctx,
		`SELECT transcript_id FROM transcripts
		WHERE to_tsvector('english', short_summary) @@ to_tsquery('english', $1)`,
		"memory",
	)
	require.NoError(t, err)
	defer rows2.Close()

	var results2 []string
	for rows2.Next() {
		var id string
		require.NoError(t, rows2.Scan(&id))
		results2 = append(results2, id)
	}
	assert.Equal(t, []string{t2.ID}, results2)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5,
			},
			wantErr: false,
		},
		{
			name: "idle conns exceed max conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxOpenConns: 5, MaxIdleConns: 10,
			},
			wantErr: true,
		},
		{
			name: "zero max open conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxOpenConns: 0, MaxIdleConns: 0,
			},
			wantErr: true,
		},
		{
			name: "negative idle conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxOpenConns: 10, MaxIdleConns: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
