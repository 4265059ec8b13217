package request_models

import dbm "subtrack/internal/models/db_models"

type CreateCheckoutRequest struct {
	Plan dbm.Plan `json:"plan" binding:"required,oneof=pro premium"`
}
