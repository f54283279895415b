package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"45000", 45000, true},
		{"45 000", 45000, true},
		{"45,000", 45000, true},
		{"45'000", 45000, true},
		{" 5000 ", 5000, true},
		{"0", 0, false},
		{"-100", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			assert.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		} else {
			assert.Error(t, err, "input %q", tc.in)
		}
	}
}

func TestIsValidUzbekPhone(t *testing.T) {
	valid := []string{
		"+998901234567",
		"998901234567",
		"8901234567",
		"901234567",
	}
	for _, p := range valid {
		assert.True(t, IsValidUzbekPhone(p), "phone %q", p)
	}

	invalid := []string{
		"",
		"+7901234567",
		"90123456",
		"+99890123456789",
		"phone",
	}
	for _, p := range invalid {
		assert.False(t, IsValidUzbekPhone(p), "phone %q", p)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "50,000", FormatNumber(50000))
	assert.Equal(t, "10,000,000", FormatNumber(10000000))
	assert.Equal(t, "-45,000", FormatNumber(-45000))
}

func TestNewOrderIDUnique(t *testing.T) {
	a := NewOrderID()
	b := NewOrderID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
