package colorkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "mixed case", in: "Red", want: "red"},
		{name: "padded", in: " red ", want: "red"},
		{name: "upper", in: "RED", want: "red"},
		{name: "tabs and newlines", in: "\tSky Blue\n", want: "sky blue"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Red", " red "))
	assert.True(t, Equal("RED", "red"))
	assert.False(t, Equal("red", "maroon"))
	assert.False(t, Valid("  "))
	assert.True(t, Valid("Blue"))
}
