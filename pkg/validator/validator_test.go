package validator

import (
	"errors"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/blobfs/internal/model"
)

type pathParams struct {
	Path  string      `validate:"required,objectpath"`
	State null.String `validate:"omitnil,oneof=open completed"`
}

func TestObjectPath(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"docs/readme.txt", true},
		{"a//b/", true},
		{"dir with space/ünïcode.bin", true},
		{"../escape", false},
		{"a/./b", false},
		{"a/..", false},
		{"tab\there", false},
		{`back\slash`, false},
		{"bad\xffutf8", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := Validate(&pathParams{Path: tt.path})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var coded model.Error
			require.True(t, errors.As(err, &coded), "got %v", err)
			assert.Equal(t, model.ErrValidation.ErrCode, coded.Code())
			assert.Contains(t, coded.Error(), "dot segments")
		})
	}
}

func TestNullableFields(t *testing.T) {
	assert.NoError(t, Validate(&pathParams{Path: "a"}))
	assert.NoError(t, Validate(&pathParams{Path: "a", State: null.StringFrom("open")}))
	assert.Error(t, Validate(&pathParams{Path: "a", State: null.StringFrom("bogus")}))
}
