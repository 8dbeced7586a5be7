package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkingCodeIsRedeemable(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	cases := []struct {
		name string
		code LinkingCode
		want bool
	}{
		{"fresh", LinkingCode{ExpiresAt: now.Add(10 * time.Minute)}, true},
		{"expired", LinkingCode{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", LinkingCode{ExpiresAt: now}, false},
		{"already used", LinkingCode{ExpiresAt: now.Add(10 * time.Minute), UsedAt: &used}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.code.IsRedeemable(now), c.name)
	}
}

func TestNormalizeLinkingCode(t *testing.T) {
	assert.Equal(t, "ABC234", NormalizeLinkingCode("abc234"))
	assert.Equal(t, "ABC234", NormalizeLinkingCode("  AbC234\n"))
	assert.Equal(t, "", NormalizeLinkingCode("   "))
}

func TestGenerateLinkingCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateLinkingCode()
		require.NoError(t, err)
		assert.Len(t, code, LinkingCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(linkingCodeAlphabet, r), "unexpected character %q", r)
		}
		seen[code] = true
	}
	// 32^6 combinations; 50 draws colliding into one value would mean the
	// generator is broken, not unlucky.
	assert.Greater(t, len(seen), 1)
}
