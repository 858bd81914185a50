package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2023-04")
	require.NoError(t, err)
	assert.Equal(t, MonthAnchor(2023, 4), m)

	m, err = ParseMonth("2023-04-17")
	require.NoError(t, err)
	assert.Equal(t, MonthAnchor(2023, 4), m)

	_, err = ParseMonth("April 2023")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewMonthRange(t *testing.T) {
	r, err := NewMonthRange("", "")
	require.NoError(t, err)
	assert.True(t, r.IsZero())
	assert.Equal(t, "... to ...", r.String())

	_, err = NewMonthRange("2024-01", "2023-12")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	r, err = NewMonthRange("2023-02", "2023-03")
	require.NoError(t, err)
	assert.False(t, r.Contains(MonthAnchor(2023, 1)))
	assert.True(t, r.Contains(MonthAnchor(2023, 2)))
	assert.True(t, r.Contains(MonthAnchor(2023, 3)))
	assert.False(t, r.Contains(MonthAnchor(2023, 4)))
	assert.Equal(t, "2023-02 to 2023-03", r.String())
}

func TestFilterByDate(t *testing.T) {
	lf := []LoadFactorRecord{
		lfRecord("LAS", "DEN", 2022, 12, 100, 80),
		lfRecord("LAS", "DEN", 2023, 1, 100, 80),
		lfRecord("LAS", "DEN", 2023, 6, 100, 80),
	}
	otp := []OTPRecord{
		otpRecord("LAS", "DEN", 2022, 12, false, false),
		otpRecord("LAS", "DEN", 2023, 6, false, false),
	}
	r, err := NewMonthRange("2023-01", "")
	require.NoError(t, err)

	assert.Len(t, FilterLoadFactorByDate(lf, r), 2)
	assert.Len(t, FilterOTPByDate(otp, r), 1)
	assert.Len(t, lf, 3)
}

func TestFilterRoutes(t *testing.T) {
	lf := []LoadFactorRecord{
		lfRecord("LAS", "DEN", 2023, 1, 100, 80),
		lfRecord("MDW", "BWI", 2023, 1, 100, 80),
	}
	otp := []OTPRecord{
		otpRecord("DEN", "LAS", 2023, 1, false, false),
		otpRecord("DAL", "HOU", 2023, 1, false, false),
	}
	routes := []string{"DEN-LAS"}

	kept := FilterLoadFactorRoutes(lf, routes)
	require.Len(t, kept, 1)
	assert.Equal(t, "DEN-LAS", kept[0].Route)

	keptOTP := FilterOTPRoutes(otp, routes)
	require.Len(t, keptOTP, 1)
	assert.Equal(t, "DEN-LAS", keptOTP[0].Route)

	assert.Empty(t, FilterOTPRoutes(otp, nil))
}
