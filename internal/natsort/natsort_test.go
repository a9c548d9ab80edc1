package natsort

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"numeric before larger numeric", "2", "10", true},
		{"numeric reversed", "10", "2", false},
		{"equal", "5", "5", false},
		{"leading zeros", "007", "8", true},
		{"mixed runs", "д.2а", "д.10", true},
		{"text ordering", "а", "б", true},
		{"prefix shorter first", "5", "5а", true},
		{"digits before same prefix longer digits", "2/1", "2/10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Less(tt.a, tt.b))
		})
	}
}

func TestStrings(t *testing.T) {
	xs := []string{"10", "2", "3", "1"}
	Strings(xs)
	assert.Equal(t, []string{"1", "2", "3", "10"}, xs)
}

func TestStringsStable(t *testing.T) {
	xs := []string{"02", "2"}
	Strings(xs)
	assert.Equal(t, []string{"02", "2"}, xs)
}
