package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/perfdash-backend/api/responses"
	"github.com/angelmondragon/perfdash-backend/api/validators"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/internal/reports"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

const maxQueryValue = 32

// ReportBuilder renders a validated report request.
type ReportBuilder interface {
	Build(ctx context.Context, req reports.Request) (*engine.Report, error)
}

// ReportBuild renders one dashboard for an account.
func ReportBuild(svc ReportBuilder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		query := reports.Query{
			Start:       validators.QueryString(r, "start", maxQueryValue),
			End:         validators.QueryString(r, "end", maxQueryValue),
			Preset:      validators.QueryString(r, "preset", maxQueryValue),
			Comparison:  validators.QueryString(r, "comparison", maxQueryValue),
			Granularity: validators.QueryString(r, "granularity", maxQueryValue),
			Currency:    validators.QueryString(r, "currency", maxQueryValue),
			Revenue:     validators.QueryString(r, "revenue", maxQueryValue),
			AsOf:        validators.QueryString(r, "as_of", maxQueryValue),
		}

		req, err := query.Request(chi.URLParam(r, "accountId"), chi.URLParam(r, "dashboard"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithAccountID(ctx, req.AccountID.String())
			ctx = logg.WithDashboard(ctx, string(req.Dashboard))
		}

		report, err := svc.Build(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
