// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/custograph/custograph/internal/model"
)

// birthdayLayout is the date-only wire format for birthdays.
const birthdayLayout = "2006-01-02"

// Meta carries per-request timing and cache metadata. A cache hit
// reports a zero query time.
type Meta struct {
	QueryTime    float64 `json:"query_time"`
	ResponseTime float64 `json:"response_time"`
	CacheHit     bool    `json:"cache_hit"`
}

// AddressResponse is the nested address object of a user.
type AddressResponse struct {
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	CityCode     string `json:"city_code"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// RelationshipResponse is one entry of a user's relationship history.
type RelationshipResponse struct {
	Points       int        `json:"points"`
	Created      time.Time  `json:"created"`
	LastActivity *time.Time `json:"last_activity"`
}

// AppUserResponse represents an app user in listing responses.
type AppUserResponse struct {
	ID            string                 `json:"id"`
	FirstName     string                 `json:"first_name"`
	LastName      string                 `json:"last_name"`
	Gender        string                 `json:"gender"`
	CustomerID    string                 `json:"customer_id"`
	PhoneNumber   *string                `json:"phone_number"`
	Created       time.Time              `json:"created"`
	Birthday      *string                `json:"birthday"`
	LastUpdated   time.Time              `json:"last_updated"`
	Address       AddressResponse        `json:"address"`
	Relationships []RelationshipResponse `json:"relationships"`
}

// AppUserListResponse is the page-number envelope.
type AppUserListResponse struct {
	Count   int               `json:"count"`
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
	Results []AppUserResponse `json:"results"`
	Meta    Meta              `json:"meta"`
}

// AppUserCursorResponse is the cursor envelope. It deliberately omits
// count and pages; computing a total over a large scan is what the
// cursor mode exists to avoid.
type AppUserCursorResponse struct {
	NextCursor string            `json:"next_cursor"`
	Results    []AppUserResponse `json:"results"`
	Meta       Meta              `json:"meta"`
}

// ErrorResponse is the error body for all 4xx/5xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// ToAppUserResponse converts a user aggregate to its response shape.
func ToAppUserResponse(u model.AppUser) AppUserResponse {
	var birthday *string
	if u.Birthday != nil {
		b := u.Birthday.Format(birthdayLayout)
		birthday = &b
	}

	relationships := make([]RelationshipResponse, 0, len(u.Relationships))
	for _, rel := range u.Relationships {
		relationships = append(relationships, RelationshipResponse{
			Points:       rel.Points,
			Created:      rel.Created,
			LastActivity: rel.LastActivity,
		})
	}

	return AppUserResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Gender:      string(u.Gender),
		CustomerID:  u.CustomerID,
		PhoneNumber: u.PhoneNumber,
		Created:     u.Created,
		Birthday:    birthday,
		LastUpdated: u.LastUpdated,
		Address: AddressResponse{
			Street:       u.Address.Street,
			StreetNumber: u.Address.StreetNumber,
			CityCode:     u.Address.CityCode,
			City:         u.Address.City,
			Country:      u.Address.Country,
		},
		Relationships: relationships,
	}
}

// ToAppUserResponses converts a slice of user aggregates.
func ToAppUserResponses(users []model.AppUser) []AppUserResponse {
	result := make([]AppUserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, ToAppUserResponse(u))
	}
	return result
}
