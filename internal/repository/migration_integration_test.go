//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custograph/custograph/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Verify all expected tables exist
	tables := []string{
		"addresses",
		"app_users",
		"customer_relationships",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_AppUsersTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"first_name",
		"last_name",
		"gender",
		"customer_id",
		"phone_number",
		"birthday",
		"created",
		"last_updated",
		"address_id",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "app_users", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in app_users table", col)
			}
		})
	}
}

func TestIntegrationMigration_AppUsersConstraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	addr := testutil.NewTestAddress(t)
	if err := testutil.InsertAddress(ctx, pool, addr); err != nil {
		t.Fatalf("insert address: %v", err)
	}

	// Verify gender check constraint
	_, err := pool.Exec(ctx, `
		INSERT INTO app_users (id, first_name, last_name, gender, customer_id, address_id)
		VALUES ($1, 'John', 'Doe', 'Unknown', $2, $3)
	`, testutil.UniqueID(), testutil.UniqueID(), addr.ID)
	if err == nil {
		t.Error("Expected check constraint violation for invalid gender")
	}

	// Verify birthday lower bound
	_, err = pool.Exec(ctx, `
		INSERT INTO app_users (id, first_name, last_name, gender, customer_id, birthday, address_id)
		VALUES ($1, 'John', 'Doe', 'Male', $2, DATE '1899-12-31', $3)
	`, testutil.UniqueID(), testutil.UniqueID(), addr.ID)
	if err == nil {
		t.Error("Expected check constraint violation for birthday before 1900")
	}

	// Verify customer_id uniqueness
	customerID := testutil.UniqueID()
	_, err = pool.Exec(ctx, `
		INSERT INTO app_users (id, first_name, last_name, gender, customer_id, address_id)
		VALUES ($1, 'John', 'Doe', 'Male', $2, $3)
	`, testutil.UniqueID(), customerID, addr.ID)
	if err != nil {
		t.Fatalf("first insert should succeed: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO app_users (id, first_name, last_name, gender, customer_id, address_id)
		VALUES ($1, 'Jane', 'Doe', 'Female', $2, $3)
	`, testutil.UniqueID(), customerID, addr.ID)
	if err == nil {
		t.Error("Expected unique violation for duplicate customer_id")
	}
}

func TestIntegrationMigration_RelationshipUniquePair(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	addr := testutil.NewTestAddress(t)
	if err := testutil.InsertAddress(ctx, pool, addr); err != nil {
		t.Fatalf("insert address: %v", err)
	}
	user := testutil.NewTestAppUser(t, addr)
	if err := testutil.InsertAppUser(ctx, pool, user); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := pool.Exec(ctx, `
		INSERT INTO customer_relationships (id, appuser_id, points, created)
		VALUES ($1, $2, 100, $3)
	`, testutil.UniqueID(), user.ID, created)
	if err != nil {
		t.Fatalf("first relationship insert should succeed: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO customer_relationships (id, appuser_id, points, created)
		VALUES ($1, $2, 200, $3)
	`, testutil.UniqueID(), user.ID, created)
	if err == nil {
		t.Error("Expected unique violation for duplicate (appuser, created) pair")
	}
}

func TestIntegrationMigration_CascadeDelete(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	addr := testutil.NewTestAddress(t)
	if err := testutil.InsertAddress(ctx, pool, addr); err != nil {
		t.Fatalf("insert address: %v", err)
	}
	user := testutil.NewTestAppUser(t, addr)
	if err := testutil.InsertAppUser(ctx, pool, user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	rel := testutil.NewTestRelationship(t, user.ID, 500, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))
	if err := testutil.InsertRelationship(ctx, pool, rel); err != nil {
		t.Fatalf("insert relationship: %v", err)
	}

	// Deleting the address should cascade through users to relationships
	if _, err := pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, addr.ID); err != nil {
		t.Fatalf("delete address: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM customer_relationships WHERE appuser_id = $1`, user.ID).Scan(&count); err != nil {
		t.Fatalf("count relationships: %v", err)
	}
	if count != 0 {
		t.Errorf("expected relationships to cascade on delete, %d remain", count)
	}
}

func TestIntegrationMigration_Rollback(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	// Apply down migration
	downPath := filepath.Join(root, "migrations", "000001_customer_graph.down.sql")
	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		t.Fatalf("read down migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}

	// Verify tables don't exist
	for _, table := range []string{"addresses", "app_users", "customer_relationships"} {
		exists, err := tableExists(ctx, pool, table)
		if err != nil {
			t.Fatalf("tableExists failed: %v", err)
		}
		if exists {
			t.Errorf("%s table should not exist after rollback", table)
		}
	}

	// Re-apply up migration for cleanup
	upPath := filepath.Join(root, "migrations", "000001_customer_graph.up.sql")
	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		t.Fatalf("reapply up migration: %v", err)
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	// Apply up migration again (should be idempotent via IF NOT EXISTS)
	upPath := filepath.Join(root, "migrations", "000001_customer_graph.up.sql")
	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		t.Fatalf("second apply should not fail: %v", err)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetCustomerGraphSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, pool
}
