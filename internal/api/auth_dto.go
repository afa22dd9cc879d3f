package api

type MeResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
