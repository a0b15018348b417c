package domainerrors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "lending-admin-api/internal/domain/errors"
)

func TestValidationError_DetailsKeepOrder(t *testing.T) {
	err := domainerrors.NewValidation().
		Add("is required", "name").
		Add("must be at least 0", "items", "2", "price").
		Add("must be a valid E.164 phone number", "phone")

	assert.True(t, err.HasIssues())
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Equal(t, domainerrors.CodeValidation, err.Code())
	assert.Equal(t, []domainerrors.IssueDetail{
		{Path: "name", Message: "is required"},
		{Path: "items.2.price", Message: "must be at least 0"},
		{Path: "phone", Message: "must be a valid E.164 phone number"},
	}, err.Details())
}

func TestValidationError_Messages(t *testing.T) {
	t.Run("default summary", func(t *testing.T) {
		err := domainerrors.NewValidation()
		assert.False(t, err.HasIssues())
		assert.Equal(t, "Validation failed", err.Summary())
		assert.Equal(t, "Validation failed", err.Error())
		assert.Equal(t, []domainerrors.IssueDetail{}, err.Details())
	})

	t.Run("error lists issues", func(t *testing.T) {
		err := domainerrors.NewValidation(
			domainerrors.Issue{Path: []string{"code"}, Message: "is required"},
			domainerrors.Issue{Message: "request body is not valid JSON"},
		)
		assert.Equal(t, "validation failed: code: is required; request body is not valid JSON", err.Error())
	})

	t.Run("custom summary", func(t *testing.T) {
		err := &domainerrors.ValidationError{Message: "Invalid payload"}
		assert.Equal(t, "Invalid payload", err.Summary())
	})
}

func TestIssue_JoinedPath(t *testing.T) {
	assert.Equal(t, "", domainerrors.Issue{}.JoinedPath())
	assert.Equal(t, "a", domainerrors.Issue{Path: []string{"a"}}.JoinedPath())
	assert.Equal(t, "items.0.sku", domainerrors.Issue{Path: []string{"items", "0", "sku"}}.JoinedPath())
}
