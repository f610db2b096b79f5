package domain

import "time"

// DefaultTimezone is assigned to users registered without an explicit zone.
const DefaultTimezone = "Europe/Moscow"

// User represents a Telegram user registered with the bot.
type User struct {
	UserID    int64     `bson:"user_id" json:"user_id"`
	Username  string    `bson:"username" json:"username"`
	FirstName string    `bson:"first_name" json:"first_name"`
	LastName  string    `bson:"last_name" json:"last_name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Timezone  string    `bson:"timezone" json:"timezone"`
}
