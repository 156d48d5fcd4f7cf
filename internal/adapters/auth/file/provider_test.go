package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvending/vending/internal/domain"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestObtainReturnsAccountContext(t *testing.T) {
	path := writeCredentials(t, `
[accounts.acc-1]
token = "bearer-1"
device_id = "3d4f00aa12"
checkin_token = "checkin-1"
`)

	auth, err := NewProvider(path).Obtain(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "acc-1", auth.AccountID)
	assert.Equal(t, "bearer-1", auth.Token)
	assert.Equal(t, "3d4f00aa12", auth.DeviceIDHex)
	assert.Equal(t, "checkin-1", auth.CheckinToken)
}

func TestObtainMissingFile(t *testing.T) {
	provider := NewProvider(filepath.Join(t.TempDir(), "nope.toml"))

	_, err := provider.Obtain(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrNoAccount)
}

func TestObtainUnknownAccount(t *testing.T) {
	path := writeCredentials(t, `
[accounts.acc-1]
token = "bearer-1"
`)

	_, err := NewProvider(path).Obtain(context.Background(), "acc-2")
	assert.ErrorIs(t, err, domain.ErrNoAccount)
}

func TestObtainEmptyToken(t *testing.T) {
	path := writeCredentials(t, `
[accounts.acc-1]
token = ""
`)

	_, err := NewProvider(path).Obtain(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrTokenUnavailable)
}

func TestObtainMalformedFile(t *testing.T) {
	path := writeCredentials(t, `not toml [`)

	_, err := NewProvider(path).Obtain(context.Background(), "acc-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoAccount)
}
