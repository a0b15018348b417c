package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "lending-admin-api/internal/domain/errors"
	"lending-admin-api/internal/httperr"
)

// DefaultMaxBodyBytes bounds JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Validator checks request payloads and reports failures as a single
// domainerrors.ValidationError whose issues follow struct field order.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator that names fields by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}
	out := domainerrors.NewValidation()
	for _, fe := range verrs {
		out.Add(message(fe), fieldPath(fe.Namespace())...)
	}
	return out
}

// DecodeJSON decodes the request body into dst and validates it. Malformed
// JSON and type mismatches are reported as validation errors.
func (v *Validator) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, DefaultMaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return domainerrors.NewValidation().Add("request body must contain a single JSON object")
	}
	return v.Struct(dst)
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return domainerrors.NewValidation().Add("request body is required")
	case errors.As(err, &maxErr):
		return httperr.Newf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", maxErr.Limit)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return domainerrors.NewValidation().Add("request body is not valid JSON")
	case errors.As(err, &typeErr):
		var path []string
		if typeErr.Field != "" {
			path = strings.Split(typeErr.Field, ".")
		}
		return domainerrors.NewValidation().Add(fmt.Sprintf("must be of type %s", typeErr.Type), path...)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return domainerrors.NewValidation().Add("unknown field", field)
	}
	return fmt.Errorf("decode request body: %w", err)
}

// fieldPath turns a validator namespace such as "Order.items[2].price"
// into ["items", "2", "price"], dropping the root struct name.
func fieldPath(ns string) []string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	path := make([]string, 0, len(parts))
	for _, p := range parts {
		for p != "" {
			open := strings.IndexByte(p, '[')
			if open < 0 {
				path = append(path, p)
				break
			}
			if open > 0 {
				path = append(path, p[:open])
			}
			end := strings.IndexByte(p[open:], ']')
			if end < 0 {
				path = append(path, p[open:])
				break
			}
			path = append(path, p[open+1:open+end])
			p = p[open+end+1:]
		}
	}
	return path
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "e164":
		return "must be a valid E.164 phone number"
	case "alphanum":
		return "must contain only letters and digits"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// Pagination holds parsed pagination params.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset of the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePagination parses page/limit from query with sensible defaults and
// bounds. Defaults: page=1, limit=defaultLimit. A limit above maxLimit is
// rejected when maxLimit > 0.
func ParsePagination(q url.Values, defaultLimit, maxLimit int) (Pagination, error) {
	page := 1
	limit := defaultLimit
	verr := domainerrors.NewValidation()

	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		} else {
			verr.Add("must be a positive integer", "page")
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n <= 0:
			verr.Add("must be a positive integer", "limit")
		case maxLimit > 0 && n > maxLimit:
			verr.Add(fmt.Sprintf("must be at most %d", maxLimit), "limit")
		default:
			limit = n
		}
	}
	if verr.HasIssues() {
		return Pagination{}, verr
	}
	return Pagination{Page: page, Limit: limit}, nil
}
