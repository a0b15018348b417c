package middleware

import (
	"errors"
	"net/http"

	domainerrors "lending-admin-api/internal/domain/errors"
	"lending-admin-api/internal/httperr"
)

const internalErrorMessage = "Internal Server Error"

// classification is the client-visible outcome for one error.
type classification struct {
	kind       domainerrors.Kind
	status     int
	code       string
	message    string
	details    any
	retryAfter int
}

// statusCarrier is any error that declares its own HTTP status.
type statusCarrier interface {
	error
	HTTPStatus() int
}

type rule func(err error) (classification, bool)

// rules is evaluated top to bottom and the first match wins. Specific domain
// kinds come before the generic ones so that an error satisfying several
// predicates is reported as the most specific kind.
var rules = []rule{
	matchResource,
	matchRateLimit,
	matchValidation,
	matchApplication,
	matchTransport,
}

// classify maps err to its envelope fields. exposeInternal controls whether
// an unclassified error's own message reaches the client.
func classify(err error, exposeInternal bool) classification {
	for _, r := range rules {
		if c, ok := r(err); ok {
			return c
		}
	}
	return fallback(err, exposeInternal)
}

func matchResource(err error) (classification, bool) {
	var re *domainerrors.ResourceError
	if !errors.As(err, &re) || !re.Known() {
		return classification{}, false
	}
	return classification{
		kind:    re.Kind,
		status:  re.HTTPStatus(),
		code:    re.Code(),
		message: re.Error(),
		details: re.Details(),
	}, true
}

func matchRateLimit(err error) (classification, bool) {
	var rl *domainerrors.RateLimitError
	if !errors.As(err, &rl) {
		return classification{}, false
	}
	return classification{
		kind:       domainerrors.KindRateLimitExceeded,
		status:     http.StatusTooManyRequests,
		code:       domainerrors.CodeRateLimitExceeded,
		message:    rl.Error(),
		details:    rl.Details(),
		retryAfter: rl.RetryAfterSeconds(),
	}, true
}

func matchValidation(err error) (classification, bool) {
	var ve *domainerrors.ValidationError
	if !errors.As(err, &ve) {
		return classification{}, false
	}
	return classification{
		kind:    domainerrors.KindValidationFailed,
		status:  http.StatusBadRequest,
		code:    domainerrors.CodeValidation,
		message: ve.Summary(),
		details: ve.Details(),
	}, true
}

func matchApplication(err error) (classification, bool) {
	var ae *domainerrors.AppError
	if !errors.As(err, &ae) {
		return classification{}, false
	}
	return classification{
		kind:    domainerrors.KindApplication,
		status:  errorStatus(ae.HTTPStatus()),
		code:    ae.Code(),
		message: ae.Error(),
		details: ae.Details(),
	}, true
}

func matchTransport(err error) (classification, bool) {
	var he *httperr.Error
	if !errors.As(err, &he) {
		return classification{}, false
	}
	return classification{
		kind:    domainerrors.KindTransport,
		status:  errorStatus(he.HTTPStatus()),
		code:    domainerrors.CodeHTTPException,
		message: he.Error(),
	}, true
}

func fallback(err error, exposeInternal bool) classification {
	c := classification{
		kind:    domainerrors.KindUnknown,
		status:  http.StatusInternalServerError,
		code:    domainerrors.CodeInternal,
		message: internalErrorMessage,
	}
	if err == nil {
		return c
	}
	var sc statusCarrier
	if errors.As(err, &sc) {
		c.status = errorStatus(sc.HTTPStatus())
	}
	if exposeInternal {
		if msg := err.Error(); msg != "" {
			c.message = msg
		}
	}
	return c
}

// errorStatus keeps an author-supplied status only when it is an error
// status; anything else cannot carry an envelope and becomes 500.
func errorStatus(s int) int {
	if s < 400 || s > 599 {
		return http.StatusInternalServerError
	}
	return s
}

// internalClassification is the response used when the boundary itself fails.
func internalClassification() classification {
	return fallback(nil, false)
}
