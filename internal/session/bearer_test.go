package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":     "abc",
		"bearer abc":     "abc",
		"  BEARER  abc ": "abc",
		"abc":            "abc",
		"":               "",
		"Basic a b":      "",
		"Bearer ":        "",
	}
	for header, want := range cases {
		assert.Equal(t, want, BearerToken(header), "header %q", header)
	}
}
