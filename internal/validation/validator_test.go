package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/validation"
)

type progressPayload struct {
	BookID      string `json:"bookId" validate:"required"`
	ReadingTime int64  `json:"readingTime" validate:"gte=0"`
	Progress    int    `json:"progress" validate:"gte=0,lte=100"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(progressPayload{BookID: "3300064831", ReadingTime: 120, Progress: 40}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		payload   progressPayload
		wantField string
	}{
		{name: "missing book id", payload: progressPayload{ReadingTime: 1}, wantField: "bookId"},
		{name: "negative reading time", payload: progressPayload{BookID: "1", ReadingTime: -5}, wantField: "readingTime"},
		{name: "progress above 100", payload: progressPayload{BookID: "1", Progress: 101}, wantField: "progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantField)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Len(t, details, 1)
		})
	}
}
