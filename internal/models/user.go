package models

// User is the dashboard operator configured for the bot.
type User struct {
	Username     string `json:"username"`
	Admin        bool   `json:"admin"`
	PasswordHash string `json:"-"` // Never expose this to the client
}
