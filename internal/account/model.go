// Package account provides the account identity model and data access.
package account

import "time"

// Account is a registered user. Staff accounts reach the admin panel
// and receive customer messages.
type Account struct {
	ID          int64      `db:"id" json:"id"`
	Username    string     `db:"username" json:"username"`
	Email       string     `db:"email" json:"email"`
	IsStaff     bool       `db:"is_staff" json:"is_staff"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// Customer is a non-staff account with activity counts for the staff users page.
type Customer struct {
	Account
	FavoriteCount int `db:"fav_count" json:"favorite_count"`
	MessageCount  int `db:"msg_count" json:"message_count"`
}
