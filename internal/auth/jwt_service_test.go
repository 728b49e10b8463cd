package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestNewJWTServiceSecretLength 测试密钥长度校验
func TestNewJWTServiceSecretLength(t *testing.T) {
	_, err := NewJWTService("short", time.Hour)
	require.Error(t, err)

	_, err = NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
}

// TestGenerateAndExtract 测试令牌往返
func TestGenerateAndExtract(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	token, expiry, err := svc.GenerateAccessToken(42, "alice")
	require.NoError(t, err)
	assert.True(t, expiry.After(time.Now()))

	claims, err := svc.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

// TestParseTamperedToken 测试被篡改的令牌
func TestParseTamperedToken(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	token, _, err := svc.GenerateAccessToken(1, "bob")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.ParseToken(tampered)
	assert.Error(t, err)
}

// TestParseWrongSecret 测试不同密钥签发的令牌
func TestParseWrongSecret(t *testing.T) {
	svc1, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	svc2, err := NewJWTService(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)

	token, _, err := svc1.GenerateAccessToken(1, "bob")
	require.NoError(t, err)

	_, err = svc2.ParseToken(token)
	assert.Error(t, err)
}
