package model

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Not exposed
}

// Identity is the verified caller carried by a bearer token.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}
