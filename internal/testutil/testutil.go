package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custograph/custograph/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetCustomerGraphSchema drops and recreates the customer graph schema
// (addresses, app_users, customer_relationships) for tests.
func ResetCustomerGraphSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", "000001_customer_graph.down.sql")
	upPath := filepath.Join(root, "migrations", "000001_customer_graph.up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestAddress creates a test address with sensible defaults.
func NewTestAddress(t testing.TB) *model.Address {
	t.Helper()
	return &model.Address{
		ID:           UniqueID(),
		Street:       "Hauptstrasse",
		StreetNumber: "12",
		CityCode:     "10115",
		City:         "Berlin",
		Country:      "Germany",
	}
}

// NewTestAppUser creates a test user with sensible defaults, attached to
// the given address.
func NewTestAppUser(t testing.TB, address *model.Address) *model.AppUser {
	t.Helper()
	now := time.Now().UTC()
	phone := "+49 30 567890"
	return &model.AppUser{
		ID:          UniqueID(),
		FirstName:   "John",
		LastName:    "Doe",
		Gender:      model.GenderMale,
		CustomerID:  "cust-" + UniqueID(),
		PhoneNumber: &phone,
		Created:     now,
		LastUpdated: now,
		Address:     *address,
	}
}

// NewTestRelationship creates a relationship record for a user. The
// created timestamp must be unique per user; callers inserting several
// relationships should offset it.
func NewTestRelationship(t testing.TB, userID string, points int, created time.Time) *model.CustomerRelationship {
	t.Helper()
	activity := created.Add(time.Hour)
	return &model.CustomerRelationship{
		ID:           UniqueID(),
		AppUserID:    userID,
		Points:       points,
		Created:      created,
		LastActivity: &activity,
	}
}

// InsertAddress inserts an address row.
func InsertAddress(ctx context.Context, pool *pgxpool.Pool, a *model.Address) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO addresses (id, street, street_number, city_code, city, country)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Street, a.StreetNumber, a.CityCode, a.City, a.Country)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// InsertAppUser inserts a user row referencing its address.
func InsertAppUser(ctx context.Context, pool *pgxpool.Pool, u *model.AppUser) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO app_users (id, first_name, last_name, gender, customer_id,
			phone_number, birthday, address_id, created, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.FirstName, u.LastName, u.Gender, u.CustomerID,
		u.PhoneNumber, u.Birthday, u.Address.ID, u.Created, u.LastUpdated)
	if err != nil {
		return fmt.Errorf("insert app user: %w", err)
	}
	return nil
}

// InsertRelationship inserts a relationship row.
func InsertRelationship(ctx context.Context, pool *pgxpool.Pool, rel *model.CustomerRelationship) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO customer_relationships (id, appuser_id, points, created, last_activity)
		VALUES ($1, $2, $3, $4, $5)
	`, rel.ID, rel.AppUserID, rel.Points, rel.Created, rel.LastActivity)
	if err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	return nil
}

// UniqueID generates a unique ULID for tests.
func UniqueID() string {
	return ulid.Make().String()
}
