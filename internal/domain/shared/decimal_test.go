package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckScale(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"12", true},
		{"0.0001", true},
		{"19.9900", true},
		{"1.500000", true},
		{"-3.25", true},
		{"0.00004", false},
		{"1.23456", false},
		{"-0.00001", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := CheckScale("Quantity", decimal.RequireFromString(tt.value))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsCode(err, CodeInvalidPrecision))
			assert.Contains(t, err.Error(), "Quantity")
		})
	}
}
