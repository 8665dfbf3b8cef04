package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v76"

	"doorlist/entity"
	"doorlist/internal/registry"
	"doorlist/lib/clock"
	"doorlist/lib/sl"
)

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

// Database provides the advisory registration lock and the submission
// mirror. Both are optional facilities.
type Database interface {
	AcquireLock(key string) (string, error)
	ReleaseLock(key, lease string) error
	SaveSubmission(rec *entity.Registration) error
}

// Attribution is the fire-and-forget marketing capture sink.
type Attribution interface {
	Capture(rec *entity.Registration) error
}

// Notifier pushes new-registration notices to operators.
type Notifier interface {
	NotifyRegistration(rec *entity.Registration, eventName string)
}

// PaymentService mints membership checkout links and handles webhook
// traffic; invoked only after a registration path has completed.
type PaymentService interface {
	PaymentLink(params *entity.MembershipParams) (*entity.Payment, error)
	VerifySignature(payload []byte, header string, tolerance time.Duration) bool
	HandleEvent(evt *stripe.Event)
}

// StoreFactory opens the row store backing one event's sheet.
type StoreFactory func(sheetID string) registry.RowStore

// EventResolver maps a store reference to its event configuration;
// nil means no backing configuration exists for the ref.
type EventResolver interface {
	Event(ref string) *entity.EventConfig
}

// Core orchestrates guest registrations: validation, duplicate check,
// persistence. The only component the HTTP boundary talks to.
type Core struct {
	events EventResolver
	stores StoreFactory
	db     Database
	attr   Attribution
	auth   AuthService
	pay    PaymentService
	notify Notifier
	log    *slog.Logger
}

func New(events EventResolver, stores StoreFactory, log *slog.Logger) *Core {
	if stores == nil {
		panic("store factory is nil")
	}
	return &Core{
		events: events,
		stores: stores,
		log:    log.With(sl.Module("core")),
	}
}

func (c *Core) SetDatabase(db Database)            { c.db = db }
func (c *Core) SetAttribution(attr Attribution)    { c.attr = attr }
func (c *Core) SetAuthService(auth AuthService)    { c.auth = auth }
func (c *Core) SetPaymentService(p PaymentService) { c.pay = p }
func (c *Core) SetNotifier(n Notifier)             { c.notify = n }

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

// Register runs one registration through the state machine
// Received → Validated → DuplicateChecked → {Duplicate | Persisted}.
// No retries happen here; retry policy belongs to the caller.
//
// The read-then-append window is not atomic: two concurrent requests
// for the same phone can both pass the duplicate check and both
// append. The store has no transactional read-modify-write to lean on,
// and human-paced form traffic makes the window acceptable. When the
// database is connected an advisory lock keyed by event, phone digits
// and country code narrows the window; acquisition failure is logged
// and the request proceeds, since the lock is a bolt-on.
func (c *Core) Register(ctx context.Context, rec *entity.Registration) (*entity.Registration, error) {
	log := c.log.With(
		slog.String("store_ref", rec.StoreRef),
		sl.Phone("phone", rec.Phone),
	)

	if reason := missingField(rec); reason != "" {
		return nil, &entity.ValidationError{Reason: reason}
	}

	event := c.events.Event(rec.StoreRef)
	if event == nil {
		return nil, &entity.ConfigurationError{Ref: rec.StoreRef}
	}
	if !event.GuestlistOpen(time.Now()) {
		return nil, &entity.ValidationError{Reason: "guest list for this event is closed"}
	}

	if c.db != nil {
		key := fmt.Sprintf("%s|%s|%s", event.Ref, rec.PhoneDigits(), rec.CountryCode)
		lease, err := c.db.AcquireLock(key)
		if err != nil {
			log.Warn("registration lock not acquired", sl.Err(err))
		} else {
			defer func() {
				if err = c.db.ReleaseLock(key, lease); err != nil {
					log.Warn("release registration lock", sl.Err(err))
				}
			}()
		}
	}

	reg := registry.New(c.stores(event.SheetID), c.log)
	existing := reg.ReadAll(ctx)
	if registry.IsDuplicate(existing, rec.Phone, rec.CountryCode) {
		log.Debug("duplicate registration rejected")
		return nil, &entity.DuplicateError{}
	}

	rec.Phone = rec.PhoneDigits()
	rec.Timestamp = clock.Now()
	if rec.EventName == "" {
		rec.EventName = event.DisplayName
	}

	if err := reg.Append(ctx, rec); err != nil {
		log.Error("persist registration", sl.Err(err))
		return nil, &entity.PersistenceError{Err: err}
	}
	log.Info("guest registered",
		slog.String("event", event.DisplayName),
		slog.String("inviter", rec.InviterName),
	)

	go c.sideChannels(*rec, event.DisplayName)

	return rec, nil
}

// Guests returns every registration for an event; the administrative
// read behind GET. A degraded store read surfaces as an empty list, the
// same availability trade-off the duplicate check makes.
func (c *Core) Guests(ctx context.Context, storeRef string) ([]*entity.Registration, error) {
	event := c.events.Event(storeRef)
	if event == nil {
		return nil, &entity.ConfigurationError{Ref: storeRef}
	}
	reg := registry.New(c.stores(event.SheetID), c.log)
	return reg.ReadAll(ctx), nil
}

func (c *Core) StripePaymentLink(params *entity.MembershipParams) (*entity.Payment, error) {
	if c.pay == nil {
		return nil, fmt.Errorf("payment service not connected")
	}
	return c.pay.PaymentLink(params)
}

func (c *Core) StripeVerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	if c.pay == nil {
		return false
	}
	return c.pay.VerifySignature(payload, header, tolerance)
}

func (c *Core) StripeEvent(_ context.Context, evt *stripe.Event) {
	if c.pay == nil {
		return
	}
	c.pay.HandleEvent(evt)
}

// sideChannels feeds the attribution sink, the submission mirror and
// the operator notifier. None of them may affect the registration that
// already succeeded.
func (c *Core) sideChannels(rec entity.Registration, eventName string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic recovered in side channels", slog.Any("panic", r))
		}
	}()
	if c.attr != nil {
		if err := c.attr.Capture(&rec); err != nil {
			c.log.Warn("attribution capture", sl.Err(err))
		}
	}
	if c.db != nil {
		if err := c.db.SaveSubmission(&rec); err != nil {
			c.log.Warn("mirror submission", sl.Err(err))
		}
	}
	if c.notify != nil {
		c.notify.NotifyRegistration(&rec, eventName)
	}
}

func missingField(rec *entity.Registration) string {
	switch {
	case rec.InviterName == "":
		return "inviter_name required"
	case rec.FirstName == "":
		return "first_name required"
	case rec.LastName == "":
		return "last_name required"
	case rec.PhoneDigits() == "":
		return "phone required"
	case rec.CountryCode == "":
		return "country_code required"
	}
	return ""
}
