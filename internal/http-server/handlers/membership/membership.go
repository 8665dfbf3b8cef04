package membership

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"doorlist/entity"
	"doorlist/lib/api/response"
	"doorlist/lib/sl"
)

type Core interface {
	StripePaymentLink(params *entity.MembershipParams) (*entity.Payment, error)
}

// Checkout mints a membership payment link for a guest who just made
// the list.
func Checkout(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.membership")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("payment service not available")
			render.JSON(w, r, response.Error("Payment service not available"))
			return
		}

		var params entity.MembershipParams
		if err := render.Bind(r, &params); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.String("plan", params.Plan),
			slog.Int64("amount", params.Amount),
		)

		pm, err := handler.StripePaymentLink(&params)
		if err != nil {
			logger.Error("get payment link", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Get link: %v", err)))
			return
		}
		logger.Debug("membership link created")

		render.JSON(w, r, response.Ok(pm))
	}
}
