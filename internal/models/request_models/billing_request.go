package request_models

type CreateCheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

type SyncCheckoutRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}
