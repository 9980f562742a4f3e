package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/perfdash-backend/api/responses"
	"github.com/angelmondragon/perfdash-backend/api/validators"
	"github.com/angelmondragon/perfdash-backend/internal/accounts"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/pagination"
)

const maxNameLength = 120

type sourceRequest struct {
	Kind     string   `json:"kind" validate:"required,source_kind"`
	Currency string   `json:"currency,omitempty" validate:"omitempty,currency"`
	Table    string   `json:"table,omitempty" validate:"omitempty,max=1024"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Labels   []string `json:"labels,omitempty" validate:"omitempty,max=20,dive,min=1,max=64"`
}

type accountCreateRequest struct {
	Name              string          `json:"name" validate:"required,min=1,max=120"`
	Slug              string          `json:"slug" validate:"required,slug,max=64"`
	DisplayCurrency   string          `json:"display_currency,omitempty" validate:"omitempty,currency"`
	RevenuePreference string          `json:"revenue_preference,omitempty" validate:"omitempty,oneof=gross net"`
	BigQueryProject   string          `json:"bigquery_project,omitempty"`
	BigQueryDataset   string          `json:"bigquery_dataset,omitempty"`
	GA4PropertyID     string          `json:"ga4_property_id,omitempty" validate:"omitempty,numeric"`
	Timezone          string          `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Sources           []sourceRequest `json:"sources,omitempty" validate:"omitempty,dive"`
}

func (r accountCreateRequest) toInput() accounts.CreateAccountInput {
	return accounts.CreateAccountInput{
		Name:              validators.SanitizeString(r.Name, maxNameLength),
		Slug:              r.Slug,
		DisplayCurrency:   r.DisplayCurrency,
		RevenuePreference: r.RevenuePreference,
		BigQueryProject:   r.BigQueryProject,
		BigQueryDataset:   r.BigQueryDataset,
		GA4PropertyID:     r.GA4PropertyID,
		Timezone:          r.Timezone,
		Sources:           sourceInputs(r.Sources),
	}
}

type accountUpdateRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	DisplayCurrency   *string          `json:"display_currency,omitempty" validate:"omitempty,currency"`
	RevenuePreference *string          `json:"revenue_preference,omitempty" validate:"omitempty,oneof=gross net"`
	BigQueryProject   *string          `json:"bigquery_project,omitempty"`
	BigQueryDataset   *string          `json:"bigquery_dataset,omitempty"`
	GA4PropertyID     *string          `json:"ga4_property_id,omitempty" validate:"omitempty,numeric"`
	Timezone          *string          `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Sources           *[]sourceRequest `json:"sources,omitempty" validate:"omitempty,dive"`
}

func (r accountUpdateRequest) toInput() accounts.UpdateAccountInput {
	input := accounts.UpdateAccountInput{
		DisplayCurrency:   r.DisplayCurrency,
		RevenuePreference: r.RevenuePreference,
		BigQueryProject:   r.BigQueryProject,
		BigQueryDataset:   r.BigQueryDataset,
		GA4PropertyID:     r.GA4PropertyID,
		Timezone:          r.Timezone,
	}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, maxNameLength)
		input.Name = &name
	}
	if r.Sources != nil {
		sources := sourceInputs(*r.Sources)
		input.Sources = &sources
	}
	return input
}

func sourceInputs(in []sourceRequest) []accounts.SourceInput {
	out := make([]accounts.SourceInput, 0, len(in))
	for _, s := range in {
		out = append(out, accounts.SourceInput{
			Kind:     s.Kind,
			Currency: s.Currency,
			Table:    s.Table,
			Enabled:  s.Enabled,
			Labels:   s.Labels,
		})
	}
	return out
}

// AccountsList returns one cursor page of accounts.
func AccountsList(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AccountsCreate registers a new account with its source bindings.
func AccountsCreate(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var req accountCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithAccountID(r.Context(), account.ID.String()), "account.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

// AccountsGet returns a single account.
func AccountsGet(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		id, err := accountIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// AccountsUpdate applies a partial update. Sending sources replaces them all.
func AccountsUpdate(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		id, err := accountIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req accountUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Update(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

func accountIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "accountId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id")
	}
	return id, nil
}
