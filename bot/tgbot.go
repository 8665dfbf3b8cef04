// Package bot implements the operators' Telegram surface: new-RSVP
// notifications, Warn+ log records forwarded by the slog handler, and
// read-only commands over the configured guest lists.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"doorlist/entity"
	"doorlist/lib/sl"
)

// Database provides the operator accounts the bot may talk to.
// Implemented by internal/database/mongo.go.
type Database interface {
	GetTelegramUsers() ([]*entity.User, error)
}

// GuestSource answers the read-only guest list commands.
type GuestSource interface {
	Guests(ctx context.Context, storeRef string) ([]*entity.Registration, error)
}

type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	db      Database
	guests  GuestSource
	events  []entity.EventConfig
	mu      sync.RWMutex // guards users
	users   map[int64]*entity.User
	updater *ext.Updater
}

func NewTgBot(apiKey string, db Database, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:   log.With(sl.Module("tgbot")),
		db:    db,
		users: make(map[int64]*entity.User),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SetGuestSource wires the core so /guests can answer; events drive
// the /events listing.
func (t *TgBot) SetGuestSource(guests GuestSource, events []entity.EventConfig) {
	t.guests = guests
	t.events = events
}

func (t *TgBot) Start() error {
	t.loadUsers()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("events", t.eventsCmd))
	dispatcher.AddHandler(handlers.NewCommand("guests", t.guestsCmd))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// loadUsers refreshes the in-memory operator cache from the database.
func (t *TgBot) loadUsers() {
	if t.db == nil {
		return
	}
	users, err := t.db.GetTelegramUsers()
	if err != nil {
		t.log.Error("loading users", sl.Err(err))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.users = make(map[int64]*entity.User)
	for _, user := range users {
		t.users[user.TelegramId] = user
	}
	t.log.With(
		slog.Int("count", len(t.users)),
	).Debug("loaded users")
}

func (t *TgBot) findUser(id int64) *entity.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	user, ok := t.users[id]
	if ok {
		return user
	}
	return nil
}

// SendMessageWithLevel delivers a message to every enabled operator
// whose configured level admits it. Called by the slog handler.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	t.mu.RLock()
	users := make([]*entity.User, 0, len(t.users))
	for _, u := range t.users {
		users = append(users, u)
	}
	t.mu.RUnlock()

	l := int(level)
	for _, user := range users {
		if !user.TelegramEnabled {
			continue
		}
		if l < user.LogLevel {
			continue
		}
		t.plainResponse(user.TelegramId, msg)
	}
}

// NotifyRegistration announces a new guest to every enabled operator.
func (t *TgBot) NotifyRegistration(rec *entity.Registration, eventName string) {
	msg := fmt.Sprintf("New RSVP for *%s*\nGuest: %s %s\nInvited by: %s",
		Sanitize(eventName),
		Sanitize(rec.FirstName), Sanitize(rec.LastName),
		Sanitize(rec.InviterName),
	)
	t.SendMessageWithLevel(msg, slog.LevelInfo)
}
