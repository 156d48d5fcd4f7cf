// Package file supplies auth contexts from a credentials file on disk.
// Each account entry carries the bearer token and device identifiers the
// protocol needs; there is no interactive consent path here.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/ports"
)

type Provider struct {
	path string
	mu   sync.RWMutex
}

var _ ports.AuthProvider = (*Provider)(nil)

func NewProvider(path string) *Provider {
	return &Provider{path: filepath.Clean(path)}
}

type credentialsFile struct {
	Accounts map[string]accountEntry `toml:"accounts"`
}

type accountEntry struct {
	Token        string `toml:"token"`
	DeviceIDHex  string `toml:"device_id"`
	CheckinToken string `toml:"checkin_token"`
}

func (p *Provider) Obtain(ctx context.Context, accountID string) (domain.AuthContext, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuthContext{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.AuthContext{}, fmt.Errorf("credentials file %q: %w", p.path, domain.ErrNoAccount)
		}
		return domain.AuthContext{}, fmt.Errorf("read credentials file: %w", err)
	}

	var file credentialsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.AuthContext{}, fmt.Errorf("decode credentials file: %w", err)
	}

	entry, ok := file.Accounts[accountID]
	if !ok {
		return domain.AuthContext{}, fmt.Errorf("account %q: %w", accountID, domain.ErrNoAccount)
	}
	if entry.Token == "" {
		return domain.AuthContext{}, fmt.Errorf("account %q: %w", accountID, domain.ErrTokenUnavailable)
	}

	return domain.AuthContext{
		AccountID:    accountID,
		Token:        entry.Token,
		DeviceIDHex:  entry.DeviceIDHex,
		CheckinToken: entry.CheckinToken,
	}, nil
}
