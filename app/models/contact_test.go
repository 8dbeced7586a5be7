package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5491122334455", "5491122334455"},
		{"+54 9 11 2233-4455", "5491122334455"},
		{"011 2233-4455", "541122334455"},
		{"1122334455", "541122334455"},
		{"(11) 2233-4455", "541122334455"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePhone(c.in), "input %q", c.in)
	}
}
