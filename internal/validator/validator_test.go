package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsErrors(t *testing.T) {
	var v Validator

	require.False(t, v.HasErrors())

	v.Check(true, "should not be recorded")
	v.Check(false, "first error")
	v.AddError("second error")

	require.True(t, v.HasErrors())
	require.Equal(t, []string{"first error", "second error"}, v.Errors)
}

func TestIsEmail(t *testing.T) {
	valid := []string{"a@b.co", "jane.doe+tag@example.org"}
	invalid := []string{"", "plainaddress", "@no-local.part", "trailing@dot."}

	for _, email := range valid {
		require.True(t, IsEmail(email), email)
	}
	for _, email := range invalid {
		require.False(t, IsEmail(email), email)
	}
}

func TestIsCurrency(t *testing.T) {
	valid := []string{"USD", "EUR", "NGN", "JPY"}
	invalid := []string{"", "US", "DOLLARS", "usd4", "XXX1"}

	for _, code := range valid {
		require.True(t, IsCurrency(code), code)
	}
	for _, code := range invalid {
		require.False(t, IsCurrency(code), code)
	}
}

func TestPhoneNumberPattern(t *testing.T) {
	require.True(t, Matches("+2348012345678", RgxPhoneNumber))
	require.True(t, Matches("+14155550132", RgxPhoneNumber))
	require.False(t, Matches("08012345678", RgxPhoneNumber))
	require.False(t, Matches("+0123", RgxPhoneNumber))
}
