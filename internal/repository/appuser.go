package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/custograph/custograph/internal/filter"
	"github.com/custograph/custograph/internal/model"
	"github.com/custograph/custograph/internal/pagination"
)

// Common errors for app user listing operations.
var (
	// ErrInvalidFilter indicates a predicate that cannot be mapped onto
	// the schema. The filter builder never produces one, so this guards
	// against hand-built specs.
	ErrInvalidFilter = errors.New("invalid filter parameters")
)

// Ordering is a validated ORDER BY directive for the listing query.
type Ordering struct {
	Column string
	Desc   bool
}

// DefaultOrdering sorts newest users first.
var DefaultOrdering = Ordering{Column: "u.created", Desc: true}

// orderableColumns whitelists the ordering fields a client may request.
var orderableColumns = map[string]string{
	"created":      "u.created",
	"last_updated": "u.last_updated",
	"first_name":   "u.first_name",
	"last_name":    "u.last_name",
	"gender":       "u.gender",
	"customer_id":  "u.customer_id",
	"birthday":     "u.birthday",
}

// ParseOrdering interprets an ordering override such as "-created" or
// "first_name". Unknown fields fall back to the default ordering, the
// same leniency the filter builder applies to malformed values.
func ParseOrdering(raw string) Ordering {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOrdering
	}

	desc := strings.HasPrefix(raw, "-")
	field := strings.TrimPrefix(raw, "-")

	col, ok := orderableColumns[field]
	if !ok {
		return DefaultOrdering
	}

	return Ordering{Column: col, Desc: desc}
}

// clause renders the ORDER BY expression. The user ID tie-break keeps
// pages stable when the ordering key has equal values.
func (o Ordering) clause() string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, u.id %s", o.Column, dir, dir)
}

// userColumns is the fixed projection needed to render one listing row.
// Restricting the column set avoids transferring anything the response
// does not use.
const userColumns = `u.id, u.first_name, u.last_name, u.gender, u.customer_id,
		u.phone_number, u.birthday, u.created, u.last_updated,
		a.street, a.street_number, a.city_code, a.city, a.country`

const (
	baseJoin         = ` FROM app_users u JOIN addresses a ON a.id = u.address_id`
	relationshipJoin = ` JOIN customer_relationships r ON r.appuser_id = u.id`
)

// predicateColumns maps each predicate kind to the schema columns it may
// target. A field outside this map is structurally invalid.
var predicateColumns = map[filter.Kind]map[string]string{
	filter.KindDirect: {
		"first_name":   "u.first_name",
		"last_name":    "u.last_name",
		"gender":       "u.gender",
		"customer_id":  "u.customer_id",
		"phone_number": "u.phone_number",
		"birthday":     "u.birthday",
	},
	filter.KindAddress: {
		"city":    "a.city",
		"street":  "a.street",
		"country": "a.country",
	},
	filter.KindRelationship: {
		"points":        "r.points",
		"last_activity": "r.last_activity",
	},
}

// listQuery is the planned SQL shape for one filter spec.
type listQuery struct {
	distinct          bool
	joinRelationships bool
	where             string
	args              []any
}

// planListQuery maps a filter spec onto SQL fragments. The relationship
// join is added, and the row set deduplicated, only when a predicate
// actually traverses the one-to-many relation; unconditional distinct
// processing would be wasted work on the common direct-field queries.
func planListQuery(spec filter.Spec) (listQuery, error) {
	q := listQuery{
		distinct:          spec.NeedsDistinct(),
		joinRelationships: spec.NeedsDistinct(),
	}

	var conds []string
	for _, p := range spec.Predicates {
		col, ok := predicateColumns[p.Kind][p.Field]
		if !ok {
			return listQuery{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, p.Field)
		}

		n := len(q.args) + 1
		switch p.Op {
		case filter.OpIContains:
			conds = append(conds, fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", col, n))
			q.args = append(q.args, escapeLike(p.Str))
		case filter.OpEq:
			conds = append(conds, fmt.Sprintf("%s = $%d", col, n))
			q.args = append(q.args, predicateArg(p))
		case filter.OpGte:
			conds = append(conds, fmt.Sprintf("%s >= $%d", col, n))
			q.args = append(q.args, predicateArg(p))
		case filter.OpLte:
			conds = append(conds, fmt.Sprintf("%s <= $%d", col, n))
			q.args = append(q.args, predicateArg(p))
		default:
			return listQuery{}, fmt.Errorf("%w: unsupported operator %d", ErrInvalidFilter, p.Op)
		}
	}

	if len(conds) > 0 {
		q.where = " WHERE " + strings.Join(conds, " AND ")
	}

	return q, nil
}

// predicateArg picks the typed value a predicate carries.
func predicateArg(p filter.Predicate) any {
	switch p.Field {
	case "birthday", "last_activity":
		return p.Time
	case "points":
		return p.Int
	default:
		return p.Str
	}
}

// escapeLike escapes LIKE wildcards so filter input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UserPage is one executed page of the filtered listing.
type UserPage struct {
	Users []model.AppUser
	Total int
}

// ListAppUsers executes the filtered, joined listing query with
// page-number pagination. Results are deduplicated by user ID whenever
// the filter traverses the relationship relation; relationship histories
// are loaded in a second query so their fan-out never multiplies the
// primary rows. Total counts the deduplicated filtered set.
func (r *Repository) ListAppUsers(ctx context.Context, spec filter.Spec, order Ordering, limit, offset int) (*UserPage, error) {
	plan, err := planListQuery(spec)
	if err != nil {
		return nil, err
	}

	joins := baseJoin
	if plan.joinRelationships {
		joins += relationshipJoin
	}

	countExpr := "COUNT(*)"
	if plan.distinct {
		countExpr = "COUNT(DISTINCT u.id)"
	}

	var total int
	countSQL := "SELECT " + countExpr + joins + plan.where
	if err := r.pool.QueryRow(ctx, countSQL, plan.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count app users: %w", err)
	}

	page := &UserPage{Users: []model.AppUser{}, Total: total}
	if total == 0 || offset >= total {
		return page, nil
	}

	distinct := ""
	if plan.distinct {
		distinct = "DISTINCT "
	}

	n := len(plan.args)
	listSQL := fmt.Sprintf("SELECT %s%s%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		distinct, userColumns, joins, plan.where, order.clause(), n+1, n+2)
	args := append(append([]any{}, plan.args...), limit, offset)

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list app users: %w", err)
	}
	defer rows.Close()

	users, err := collectAppUsers(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadRelationships(ctx, users); err != nil {
		return nil, err
	}

	page.Users = users
	return page, nil
}

// ListAppUsersCursor scans the filtered listing in created-descending
// order with keyset pagination. The returned token is empty when the
// scan is exhausted.
func (r *Repository) ListAppUsersCursor(ctx context.Context, spec filter.Spec, cursorToken string, limit int) ([]model.AppUser, string, error) {
	plan, err := planListQuery(spec)
	if err != nil {
		return nil, "", err
	}

	where := plan.where
	args := plan.args

	if cursorToken != "" {
		cur, err := pagination.DecodeCursor(cursorToken)
		if err != nil {
			return nil, "", err
		}

		cond := fmt.Sprintf("(u.created, u.id) < ($%d, $%d)", len(args)+1, len(args)+2)
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
		args = append(args, cur.Created, cur.ID)
	}

	joins := baseJoin
	if plan.joinRelationships {
		joins += relationshipJoin
	}

	distinct := ""
	if plan.distinct {
		distinct = "DISTINCT "
	}

	listSQL := fmt.Sprintf("SELECT %s%s%s%s ORDER BY u.created DESC, u.id DESC LIMIT $%d",
		distinct, userColumns, joins, where, len(args)+1)
	args = append(args, limit+1) // one extra row decides whether a next page exists

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list app users: %w", err)
	}
	defer rows.Close()

	users, err := collectAppUsers(rows)
	if err != nil {
		return nil, "", err
	}

	var next string
	if len(users) > limit {
		users = users[:limit]
		last := users[len(users)-1]
		next = pagination.EncodeCursor(pagination.Cursor{ID: last.ID, Created: last.Created})
	}

	if err := r.loadRelationships(ctx, users); err != nil {
		return nil, "", err
	}

	return users, next, nil
}

// collectAppUsers drains the listing rows into user aggregates.
func collectAppUsers(rows pgx.Rows) ([]model.AppUser, error) {
	users := []model.AppUser{}
	for rows.Next() {
		var u model.AppUser
		err := rows.Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Gender,
			&u.CustomerID,
			&u.PhoneNumber,
			&u.Birthday,
			&u.Created,
			&u.LastUpdated,
			&u.Address.Street,
			&u.Address.StreetNumber,
			&u.Address.CityCode,
			&u.Address.City,
			&u.Address.Country,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app user: %w", err)
		}
		u.Relationships = []model.CustomerRelationship{}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating app users: %w", err)
	}

	return users, nil
}

// loadRelationships attaches each user's full relationship history,
// newest first. Loading the histories separately keeps the one-to-many
// fan-out out of the primary row set.
func (r *Repository) loadRelationships(ctx context.Context, users []model.AppUser) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]string, len(users))
	index := make(map[string]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
		index[users[i].ID] = i
	}

	query := `
		SELECT id, appuser_id, points, created, last_activity
		FROM customer_relationships
		WHERE appuser_id = ANY($1)
		ORDER BY created DESC
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rel model.CustomerRelationship
		if err := rows.Scan(&rel.ID, &rel.AppUserID, &rel.Points, &rel.Created, &rel.LastActivity); err != nil {
			return fmt.Errorf("failed to scan relationship: %w", err)
		}
		if i, ok := index[rel.AppUserID]; ok {
			users[i].Relationships = append(users[i].Relationships, rel)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating relationships: %w", err)
	}

	return nil
}
