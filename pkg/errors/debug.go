package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"google.golang.org/api/googleapi"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	GoogleStatus  int    `json:"google_status,omitempty"`
	GoogleReason  string `json:"google_reason,omitempty"`
	GoogleMessage string `json:"google_message,omitempty"`
}

// Dump flattens err into log friendly fields: the unwrap chain plus any
// Postgres or Google API details found along it.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	if !d.fillPostgres(err) {
		d.fillGoogle(err)
	}
	return d
}

func (d *ErrorDump) fillPostgres(err error) bool {
	if pgxErr := new(pgconn.PgError); errors.As(err, &pgxErr) {
		d.PGCode, d.PGMessage, d.PGDetail = pgxErr.Code, pgxErr.Message, pgxErr.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pgxErr.TableName, pgxErr.ColumnName, pgxErr.ConstraintName
		return true
	}
	if pqErr := new(pq.Error); errors.As(err, &pqErr) {
		d.PGCode, d.PGMessage, d.PGDetail = string(pqErr.Code), pqErr.Message, pqErr.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pqErr.Table, pqErr.Column, pqErr.Constraint
		return true
	}
	return false
}

func (d *ErrorDump) fillGoogle(err error) {
	gErr := new(googleapi.Error)
	if !errors.As(err, &gErr) {
		return
	}
	d.GoogleStatus, d.GoogleMessage = gErr.Code, gErr.Message
	if len(gErr.Errors) > 0 {
		d.GoogleReason = gErr.Errors[0].Reason
	}
}
