package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	"atelier/internal/core/types"
)

type sample struct {
	Name  string       `validate:"required"`
	Items []sampleItem `validate:"required,min=1,dive"`
}

type sampleItem struct {
	Kind string `validate:"oneof=a b"`
}

func TestValidateStruct(t *testing.T) {
	err := ValidateStruct(sample{Name: "x", Items: []sampleItem{{Kind: "a"}}})
	assert.NoError(t, err)

	err = ValidateStruct(sample{Items: []sampleItem{{Kind: "c"}}})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	fields := appErr.Details["fields"].(map[string]string)
	assert.Equal(t, "required", fields["sample.Name"])
	assert.Equal(t, "oneof", fields["sample.Items[0].Kind"])
}

func TestRequirePercentage(t *testing.T) {
	assert.NoError(t, RequirePercentage("discount", types.MustMoney("0")))
	assert.NoError(t, RequirePercentage("discount", types.MustMoney("100")))
	assert.Error(t, RequirePercentage("discount", types.MustMoney("100.01")))
	assert.Error(t, RequirePercentage("discount", types.MustMoney("-1")))
}

func TestRequirePositive(t *testing.T) {
	assert.Error(t, RequirePositive("amount", types.Zero()))
	assert.NoError(t, RequirePositive("amount", types.MustMoney("0.01")))
	assert.Error(t, RequireNonNegative("price", types.MustMoney("-0.01")))
}
