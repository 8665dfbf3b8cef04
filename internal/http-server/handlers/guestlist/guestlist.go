package guestlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"doorlist/entity"
	"doorlist/invite"
	"doorlist/lib/api/cont"
	"doorlist/lib/api/response"
	"doorlist/lib/sl"
)

type Core interface {
	Register(ctx context.Context, rec *entity.Registration) (*entity.Registration, error)
	Guests(ctx context.Context, storeRef string) ([]*entity.Registration, error)
}

// registered is the success payload: the stored record plus the next
// link in the referral chain, minted here at the UI boundary so the
// new guest can pass it on.
type registered struct {
	Registration *entity.Registration `json:"registration"`
	ReferralSlug string               `json:"referral_slug"`
	InviteToken  string               `json:"invite_token"`
}

func Register(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.guestlist")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var rec entity.Registration
		if err := render.Bind(r, &rec); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.String("store_ref", rec.StoreRef),
			sl.Phone("phone", rec.Phone),
		)

		stored, err := handler.Register(r.Context(), &rec)
		if err != nil {
			renderOutcome(w, r, logger, err)
			return
		}
		logger.Debug("registration accepted")

		fullName := stored.FirstName + " " + stored.LastName
		render.JSON(w, r, response.Ok(registered{
			Registration: stored,
			ReferralSlug: invite.GenerateSlug(fullName),
			InviteToken:  invite.Encode(fullName, stored.Phone),
		}))
	}
}

// renderOutcome maps the registration taxonomy onto HTTP statuses.
// Store internals never reach the caller; persistence causes are logged
// and replaced with a generic retry message.
func renderOutcome(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *entity.ValidationError
	var ce *entity.ConfigurationError
	var de *entity.DuplicateError
	var pe *entity.PersistenceError

	switch {
	case errors.As(err, &ve):
		logger.Warn("registration rejected", sl.Err(err))
		render.Status(r, 400)
		render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %s", ve.Reason)))
	case errors.As(err, &de):
		// expected outcome, not an exceptional condition
		render.Status(r, 409)
		render.JSON(w, r, response.Conflict(entity.DuplicateMessage))
	case errors.As(err, &ce):
		logger.Error("store ref not configured", sl.Err(err))
		render.Status(r, 500)
		render.JSON(w, r, response.Error("Guest list is not configured for this event"))
	case errors.As(err, &pe):
		logger.Error("persist registration", sl.Err(err))
		render.Status(r, 500)
		render.JSON(w, r, response.Error("Failed to process RSVP. Please try again."))
	default:
		logger.Error("register", sl.Err(err))
		render.Status(r, 500)
		render.JSON(w, r, response.Error("Failed to process RSVP. Please try again."))
	}
}

// List is the administrative read of an event's registry.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.guestlist")
		storeRef := r.URL.Query().Get("store_ref")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("store_ref", storeRef),
			slog.String("operator", cont.GetUser(r.Context()).Username),
		)

		guests, err := handler.Guests(r.Context(), storeRef)
		if err != nil {
			var ce *entity.ConfigurationError
			if errors.As(err, &ce) {
				logger.Error("store ref not configured", sl.Err(err))
				render.Status(r, 500)
				render.JSON(w, r, response.Error("Guest list is not configured for this event"))
				return
			}
			logger.Error("list guests", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to read guest list"))
			return
		}
		logger.Debug("guest list read", slog.Int("count", len(guests)))

		render.JSON(w, r, response.List(guests, len(guests)))
	}
}
