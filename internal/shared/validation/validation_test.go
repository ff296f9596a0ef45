package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Date string `validate:"required,isodate"`
	Time string `validate:"required,hhmm"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	assert.NoError(t, v.Struct(sample{Date: "2025-03-01", Time: "21:30"}))
	assert.Error(t, v.Struct(sample{Date: "2025-02-30", Time: "21:30"}))
	assert.Error(t, v.Struct(sample{Date: "01/03/2025", Time: "21:30"}))
	assert.Error(t, v.Struct(sample{Date: "2025-03-01", Time: "9:30"}))
	assert.Error(t, v.Struct(sample{Date: "2025-03-01", Time: "25:00"}))
}

func TestRegisterIsIdempotent(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())
}
