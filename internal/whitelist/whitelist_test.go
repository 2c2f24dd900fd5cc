package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCheckerMatchesDomain(t *testing.T) {
	checker := NewChecker([]string{"Example.COM", " trusted.org "}, zap.NewNop())

	tests := []struct {
		name    string
		from    string
		allowed bool
	}{
		{"bare address", "person@example.com", true},
		{"uppercase domain", "person@EXAMPLE.COM", true},
		{"display name", "A Person <a.person@trusted.org>", true},
		{"other domain", "person@other.net", false},
		{"subdomain is not the domain", "person@mail.example.com", false},
		{"no at sign", "not-an-address", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, checker.IsAllowed(tt.from))
		})
	}
}

func TestCheckerEmptyListAllowsNothing(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	assert.False(t, checker.IsAllowed("person@example.com"))
}

func TestCheckerDisplayNameDomainIgnored(t *testing.T) {
	// Only the angle-bracketed address counts, not text in the display name.
	checker := NewChecker([]string{"example.com"}, zap.NewNop())
	assert.False(t, checker.IsAllowed("bob@example.com <bob@evil.net>"))
}
