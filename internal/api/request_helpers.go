package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/careerpath-api/internal/domain"
)

// OptionalText is a free-text form field that clients send either as a JSON
// string or as a number (ages commonly arrive as numbers).
type OptionalText struct {
	Value string
	Set   bool
}

// UnmarshalJSON accepts strings, numbers, and null.
func (o *OptionalText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*o = OptionalText{}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*o = OptionalText{Value: s, Set: true}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*o = OptionalText{Value: n.String(), Set: true}
		return nil
	}

	return fmt.Errorf("%w: expected a string or number", domain.ErrValidation)
}

// Ptr returns the value as an optional string for domain.StudentDetails.
func (o OptionalText) Ptr() *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// optionalTextValue lets validator tags such as max apply to OptionalText.
func optionalTextValue(v reflect.Value) interface{} {
	if o, ok := v.Interface().(OptionalText); ok {
		return o.Value
	}
	return nil
}

// parseAnswers decodes the answers field of a submission. An absent field or
// null means no answers were given; any other non-object is malformed. An
// empty object is a valid, if unanswered, assessment.
func parseAnswers(raw json.RawMessage) (*domain.AnswerSet, error) {
	switch strings.TrimSpace(string(raw)) {
	case "", "null":
		return nil, domain.ErrMissingAnswers
	}

	answers := domain.NewAnswerSet()
	if err := json.Unmarshal(raw, answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
