package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/perfdash-backend/api/responses"
	"github.com/angelmondragon/perfdash-backend/api/validators"
	"github.com/angelmondragon/perfdash-backend/internal/rates"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

// RateTableProvider returns the active rate table.
type RateTableProvider interface {
	Current(ctx context.Context) *rates.Table
}

type conversionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      enums.Currency  `json:"from"`
	To        enums.Currency  `json:"to"`
	Converted decimal.Decimal `json:"converted"`
	AsOf      string          `json:"as_of,omitempty"`
}

// RatesCurrent returns the active USD-based rate table.
func RatesCurrent(svc RateTableProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rate service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Current(r.Context()).View())
	}
}

// RatesConvert converts an amount between two supported currencies.
func RatesConvert(svc RateTableProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rate service unavailable"))
			return
		}

		amount, err := validators.ParseQueryDecimal(r, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := enums.ParseCurrency(validators.QueryString(r, "from", maxQueryValue))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from currency"))
			return
		}
		to, err := enums.ParseCurrency(validators.QueryString(r, "to", maxQueryValue))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to currency"))
			return
		}

		table := svc.Current(r.Context())
		converted, err := table.Convert(amount, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rate not available"))
			return
		}

		resp := conversionResponse{Amount: amount, From: from, To: to, Converted: converted}
		if asOf := table.AsOf(); !asOf.IsZero() {
			resp.AsOf = asOf.Format("2006-01-02")
		}
		responses.WriteSuccess(w, resp)
	}
}
