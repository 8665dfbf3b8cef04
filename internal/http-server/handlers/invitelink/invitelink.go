package invitelink

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"doorlist/invite"
	"doorlist/lib/api/response"
	"doorlist/lib/sl"
)

// inviter is what the landing page needs to show "invited by" and
// prefill the form. An undecodable token yields empty fields, never an
// error; the page simply shows no inviter.
type inviter struct {
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Resolve decodes an invite token and/or referral slug from the query
// string into a presentable inviter identity.
func Resolve(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.invitelink"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var result inviter
		if token := r.URL.Query().Get("token"); token != "" {
			name, phone, ok := invite.Decode(token)
			if ok {
				result.Name = name
				result.Phone = phone
			} else {
				logger.Debug("undecodable invite token")
			}
		}
		if slug := r.URL.Query().Get("slug"); slug != "" {
			result.DisplayName = invite.RecoverDisplayName(slug)
		}
		if result.DisplayName == "" && result.Name != "" {
			result.DisplayName = result.Name
		}

		render.JSON(w, r, response.Ok(result))
	}
}
