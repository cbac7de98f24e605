package service

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type resolverFunc func(ctx context.Context, name string) ([]*net.MX, error)

func (f resolverFunc) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return f(ctx, name)
}

func TestDomainCheck(t *testing.T) {
	var asked string
	checker := NewDomainChecker(resolverFunc(func(_ context.Context, name string) ([]*net.MX, error) {
		asked = name
		if name == "example.com" {
			return []*net.MX{{Host: "mx.example.com."}}, nil
		}
		return nil, errors.New("no such host")
	}), zap.NewNop())

	assert.True(t, checker.Check(context.Background(), "ana@example.com"))
	assert.Equal(t, "example.com", asked)
	assert.False(t, checker.Check(context.Background(), "ana@nowhere.invalid"))
	assert.False(t, checker.Check(context.Background(), "ana@"))
	assert.False(t, checker.Check(context.Background(), "ana"))
}
