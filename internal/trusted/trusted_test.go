package trusted

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsTrusted(t *testing.T) {
	checker := NewChecker([]string{"Bank.com", " internal.bank.com "}, zap.NewNop())

	assert.True(t, checker.IsTrusted("jane@bank.com"))
	assert.True(t, checker.IsTrusted("JANE@BANK.COM"))
	assert.True(t, checker.IsTrusted("sys@internal.bank.com"))
	assert.False(t, checker.IsTrusted("jane@other.com"))
}

func TestIsTrustedAngleBracketForm(t *testing.T) {
	checker := NewChecker([]string{"bank.com"}, zap.NewNop())

	assert.True(t, checker.IsTrusted("Jane Doe <jane@bank.com>"))
}

func TestIsTrustedMalformedSender(t *testing.T) {
	checker := NewChecker([]string{"bank.com"}, zap.NewNop())

	assert.False(t, checker.IsTrusted("not-an-address"))
	assert.False(t, checker.IsTrusted("a@b@c"))
	assert.False(t, checker.IsTrusted(""))
}

func TestIsTrustedEmptyList(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())

	assert.False(t, checker.IsTrusted("jane@bank.com"))
}
