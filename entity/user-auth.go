package entity

// UserAuth is the identity attached to an authenticated API request.
type UserAuth struct {
	Username string `json:"username"`
}
