package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		t.plainResponse(chatId, "This bot serves registered operators only\\. Ask an admin to add your Telegram ID\\.")
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf("Hello %s\\. Notifications are active\\. Try /events or /guests\\.", Sanitize(user.Username)))
	return nil
}

func (t *TgBot) eventsCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if t.findUser(chatId) == nil {
		return nil
	}
	if len(t.events) == 0 {
		t.plainResponse(chatId, "No events configured\\.")
		return nil
	}
	var b strings.Builder
	b.WriteString("Configured events:\n")
	for _, e := range t.events {
		b.WriteString(fmt.Sprintf("`%s` — %s", Sanitize(e.Ref), Sanitize(e.DisplayName)))
		if cc := e.CountryCode(); cc != "" {
			b.WriteString(fmt.Sprintf(" \\(%s\\)", cc))
		}
		b.WriteString("\n")
	}
	t.plainResponse(chatId, b.String())
	return nil
}

func (t *TgBot) guestsCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if t.findUser(chatId) == nil {
		return nil
	}
	if t.guests == nil {
		t.plainResponse(chatId, "Guest list service not connected\\.")
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	ref := ""
	if len(args) > 1 {
		ref = args[1]
	}

	readCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	guests, err := t.guests.Guests(readCtx, ref)
	if err != nil {
		t.reportError(chatId, "/guests", err)
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf("Guest list `%s`: %d registered\\.", Sanitize(ref), len(guests)))
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if t.findUser(chatId) == nil {
		return nil
	}
	t.plainResponse(chatId,
		"/events — list configured events\n"+
			"/guests `<ref>` — registration count for an event\n"+
			"/help — this message")
	return nil
}
