package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender's domain bypasses classification.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new allowlist checker. Domains are normalized to
// lowercase.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, len(domains))
	for i, domain := range domains {
		normalized[i] = strings.ToLower(strings.TrimSpace(domain))
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender allowlist", zap.Strings("domains", normalized))
	}

	return &Checker{domains: normalized, logger: logger}
}

// IsAllowed reports whether the sender's domain is allowlisted. The from
// value is a raw header, so the address is pulled out of any display-name
// wrapping before the domain is compared.
func (c *Checker) IsAllowed(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	addr := from
	if start := strings.LastIndex(addr, "<"); start >= 0 {
		if end := strings.Index(addr[start:], ">"); end > 0 {
			addr = addr[start+1 : start+end]
		}
	}

	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))

	for _, allowed := range c.domains {
		if allowed == domain {
			if c.logger != nil {
				c.logger.Debug("Sender domain is allowlisted",
					zap.String("domain", domain),
					zap.String("from", from))
			}
			return true
		}
	}

	return false
}
