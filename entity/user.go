package entity

import (
	"net/http"
	"time"

	"doorlist/lib/validate"
)

// User is an operator account: API token for the admin endpoints and,
// optionally, a Telegram identity for the ops bot.
type User struct {
	Username        string    `json:"username" bson:"username" validate:"required"`
	Name            string    `json:"name" bson:"name" validate:"omitempty"`
	Email           string    `json:"email" bson:"email" validate:"omitempty"`
	Token           string    `json:"token" bson:"token" validate:"required,min=1"`
	TelegramId      int64     `json:"telegram_id" bson:"telegram_id" validate:"omitempty"`
	TelegramEnabled bool      `json:"telegram_enabled" bson:"telegram_enabled" validate:"omitempty"`
	LogLevel        int       `json:"log_level" bson:"log_level" validate:"omitempty"`
	RegisteredAt    time.Time `json:"registered_at" bson:"registered_at"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}
