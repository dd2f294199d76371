package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"point-service/internal/models"
)

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   bool
	}{
		{-100, false},
		{0, false},
		{1, true},
		{models.MaxPoint, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidAmount(tt.amount), "amount %d", tt.amount)
	}
}

func TestIsExceedingMax(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		amount  int64
		want    bool
	}{
		{"well under", 5000, 1000, false},
		{"lands exactly on max", models.MaxPoint - 1, 1, false},
		{"already at max", models.MaxPoint, 1, true},
		{"overshoots", 9_999_000, 1001, true},
		{"huge amount does not wrap", 1, math.MaxInt64, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExceedingMax(tt.current, tt.amount))
		})
	}
}

func TestHasInsufficientBalance(t *testing.T) {
	assert.True(t, HasInsufficientBalance(1000, 2000))
	assert.False(t, HasInsufficientBalance(3000, 2000))
	assert.False(t, HasInsufficientBalance(2000, 2000))
	assert.False(t, HasInsufficientBalance(0, 0))
}
