package service

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MXResolver is the subset of *net.Resolver used for email domain checks.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DomainChecker looks up MX records for email domains. Results are only
// logged; a missing mail server never blocks a request.
type DomainChecker struct {
	resolver MXResolver
	logger   *zap.Logger
	timeout  time.Duration
}

// NewDomainChecker builds a checker. A nil resolver uses net.DefaultResolver.
func NewDomainChecker(resolver MXResolver, logger *zap.Logger) *DomainChecker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DomainChecker{resolver: resolver, logger: logger, timeout: 5 * time.Second}
}

// Check reports whether the email's domain publishes at least one MX record.
func (d *DomainChecker) Check(ctx context.Context, email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		d.logger.Info("email has no domain", zap.String("email", email))
		return false
	}
	domain := email[at+1:]

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	records, err := d.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		d.logger.Info("email domain has no mail server", zap.String("domain", domain), zap.Error(err))
		return false
	}
	d.logger.Debug("email domain valid", zap.String("domain", domain), zap.String("mx", records[0].Host))
	return true
}

// CheckAsync runs Check in the background, detached from the request.
func (d *DomainChecker) CheckAsync(email string) {
	if d == nil {
		return
	}
	go d.Check(context.Background(), email)
}
