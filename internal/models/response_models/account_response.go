package response_models

import (
	"time"

	"github.com/google/uuid"

	dbm "subtrack/internal/models/db_models"
)

type AccountResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Plan       dbm.Plan   `json:"plan"`
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
}

// AccountLoginResponse is returned by login and register. The same
// credentials are also set as cookies.
type AccountLoginResponse struct {
	Account          AccountResponse `json:"account"`
	AccessToken      string          `json:"access_token"`
	AccessExpiresAt  time.Time       `json:"access_expires_at"`
	RefreshExpiresAt time.Time       `json:"refresh_expires_at"`
}

type HomeResponse struct {
	Authenticated bool     `json:"authenticated"`
	Plan          dbm.Plan `json:"plan,omitempty"`
}

func NewAccountResponse(u *dbm.User) AccountResponse {
	return AccountResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Plan:       u.Plan,
		LastScanAt: u.LastScanAt,
	}
}
