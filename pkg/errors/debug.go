package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgRaiseException is the SQLSTATE of a plpgsql RAISE EXCEPTION without an explicit code.
const pgRaiseException = "P0001"

const invalidPricingMarker = "INVALID_PRICING_DATA"

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
}

// Dump flattens err, its wrap chain and any Postgres driver detail for logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
		return d
	}

	return d
}

// Fields returns the non-empty parts of the dump as log fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if d.PGCode != "" {
		fields["pg_code"] = d.PGCode
	}
	if d.PGConstraint != "" {
		fields["pg_constraint"] = d.PGConstraint
	}
	if d.PGTable != "" {
		fields["pg_table"] = d.PGTable
	}
	if d.PGMessage != "" {
		fields["pg_message"] = d.PGMessage
	}
	return fields
}

// IsInvalidPricingRaise reports whether err is the INVALID_PRICING_DATA exception raised
// by the get_resolved_price function.
func IsInvalidPricingRaise(err error) bool {
	d := Dump(err)
	return d.PGCode == pgRaiseException && strings.HasPrefix(d.PGMessage, invalidPricingMarker)
}
