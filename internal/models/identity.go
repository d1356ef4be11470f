package models

// Identity is the signed-in user as reported by the identity provider
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	Forbidden   bool   `json:"forbidden"`
}
