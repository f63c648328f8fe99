package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"
)

// maxBodyBytes caps request bodies; ledger requests are a few fields.
const maxBodyBytes = 64 << 10

// Amount is a money value sent either as a JSON string ("9,2") or a JSON
// number (9.2). Both go through core.ParseDecimal, so the number keeps its
// literal digits rather than a float approximation.
type Amount struct {
	raw string
	set bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount{raw: s, set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = Amount{raw: n.String(), set: true}
	return nil
}

// Decimal parses the amount, reporting a missing value as a validation
// error on field.
func (a Amount) Decimal(field string) (decimal.Decimal, error) {
	if !a.set {
		return decimal.Zero, &core.ValidationError{Field: field, Err: errMissing}
	}
	return core.ParseDecimal(field, a.raw)
}

var errMissing = errors.New("value is required")

// decodeJSON reads a single JSON object into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// confirmed reports whether a destructive request carried confirm=true.
func confirmed(r *http.Request) error {
	ok, err := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err != nil || !ok {
		return core.ErrNotConfirmed
	}
	return nil
}
