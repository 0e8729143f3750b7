// Package main is a bulk data seeder for the customer graph.
//
// It fills the database with synthetic users, addresses and relationship
// histories so the listing endpoints can be exercised at realistic scale.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed -users 100000 -batch 10000
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/custograph/custograph/internal/model"
)

var (
	firstNames = []string{"John", "Jane", "Max", "Anna", "Pierre", "Marie", "Lukas", "Emma", "Felix", "Sophie", "Paul", "Laura", "Jonas", "Lena", "David", "Clara"}
	lastNames  = []string{"Doe", "Smith", "Mueller", "Schmidt", "Dupont", "Martin", "Weber", "Fischer", "Bernard", "Wagner", "Becker", "Petit", "Hoffmann", "Durand"}
	streets    = []string{"Main Street", "Hauptstrasse", "Rue de la Paix", "Park Avenue", "Bahnhofstrasse", "Avenue Victor Hugo", "Lindenallee", "Kirchgasse"}
	cities     = []string{"Berlin", "Hamburg", "Munich", "Paris", "Lyon", "Vienna", "Zurich", "Amsterdam", "Brussels", "Copenhagen"}
	countries  = []string{"Germany", "France", "Austria", "Switzerland", "Netherlands", "Belgium", "Denmark"}
	genders    = []model.Gender{model.GenderMale, model.GenderFemale, model.GenderOther, model.GenderPreferNotToSay}
)

func main() {
	users := flag.Int("users", 100000, "number of users to create")
	batch := flag.Int("batch", 10000, "batch size for bulk inserts")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	start := time.Now()
	seeder := &seeder{pool: pool, logger: logger, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}

	if err := seeder.run(ctx, *users, *batch); err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	logger.Info("seeding complete", "users", *users, "elapsed", time.Since(start).Round(time.Second))
}

type seeder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	rng    *rand.Rand
}

func (s *seeder) run(ctx context.Context, total, batchSize int) error {
	created := 0
	for created < total {
		n := batchSize
		if total-created < n {
			n = total - created
		}
		if err := s.seedBatch(ctx, n); err != nil {
			return fmt.Errorf("batch at %d: %w", created, err)
		}
		created += n
		s.logger.Info("progress", "created", created, "total", total)
	}
	return nil
}

// seedBatch inserts one batch of addresses, users, and relationships
// via COPY. Every user gets exactly one address and 0-3 relationships.
func (s *seeder) seedBatch(ctx context.Context, n int) error {
	now := time.Now().UTC()

	addressRows := make([][]any, 0, n)
	userRows := make([][]any, 0, n)
	relationshipRows := make([][]any, 0, n*2)

	for i := 0; i < n; i++ {
		addressID := ulid.Make().String()
		addressRows = append(addressRows, []any{
			addressID,
			s.pick(streets),
			fmt.Sprintf("%d", s.rng.Intn(999)+1),
			fmt.Sprintf("%05d", s.rng.Intn(99999)),
			s.pick(cities),
			s.pick(countries),
		})

		userID := ulid.Make().String()
		userCreated := now.Add(-time.Duration(s.rng.Intn(730*24)) * time.Hour)

		var phone *string
		if s.rng.Float64() > 0.2 {
			p := fmt.Sprintf("+49%09d", s.rng.Intn(1_000_000_000))
			phone = &p
		}
		var birthday *time.Time
		if s.rng.Float64() > 0.1 {
			age := 18 + s.rng.Intn(63)
			b := now.AddDate(-age, -s.rng.Intn(12), -s.rng.Intn(28))
			birthday = &b
		}

		userRows = append(userRows, []any{
			userID,
			s.pick(firstNames),
			s.pick(lastNames),
			string(genders[s.rng.Intn(len(genders))]),
			"CRM" + ulid.Make().String(),
			phone,
			birthday,
			userCreated,
			now,
			addressID,
		})

		// 0-3 relationships per user, created strictly after the user
		// so the unique (appuser, created) pair always holds.
		for j := 0; j < s.rng.Intn(4); j++ {
			relCreated := userCreated.Add(time.Duration(j+1) * 24 * time.Hour)
			var lastActivity *time.Time
			if s.rng.Float64() > 0.3 {
				la := relCreated.Add(time.Duration(s.rng.Intn(30*24)) * time.Hour)
				lastActivity = &la
			}
			relationshipRows = append(relationshipRows, []any{
				ulid.Make().String(),
				userID,
				s.rng.Intn(10001),
				relCreated,
				lastActivity,
			})
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"addresses"},
		[]string{"id", "street", "street_number", "city_code", "city", "country"},
		pgx.CopyFromRows(addressRows),
	); err != nil {
		return fmt.Errorf("copy addresses: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"app_users"},
		[]string{"id", "first_name", "last_name", "gender", "customer_id", "phone_number", "birthday", "created", "last_updated", "address_id"},
		pgx.CopyFromRows(userRows),
	); err != nil {
		return fmt.Errorf("copy users: %w", err)
	}

	if len(relationshipRows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"customer_relationships"},
			[]string{"id", "appuser_id", "points", "created", "last_activity"},
			pgx.CopyFromRows(relationshipRows),
		); err != nil {
			return fmt.Errorf("copy relationships: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *seeder) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}
