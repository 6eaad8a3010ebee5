// Package credentials stores provider API keys. A Store is an opaque
// key-value capability; callers never learn where a secret lives.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"scriptgen/internal/generation"
	"scriptgen/internal/provider"
)

var ErrEmptySlot = errors.New("credential slot is empty")

type Store interface {
	// Get reports ok=false when the slot holds nothing.
	Get(ctx context.Context, slot string) (secret string, ok bool, err error)
	Set(ctx context.Context, slot, secret string) error
}

// Resolve returns the credential for desc or a CredentialMissing error.
func Resolve(ctx context.Context, store Store, desc provider.Descriptor) (string, error) {
	if store == nil || desc.CredentialSlot == "" {
		return "", generation.CredentialMissing(desc.ID, desc.CredentialSlot)
	}
	secret, ok, err := store.Get(ctx, desc.CredentialSlot)
	if err != nil {
		return "", fmt.Errorf("read credential %s: %w", desc.CredentialSlot, err)
	}
	secret = strings.TrimSpace(secret)
	if !ok || secret == "" {
		return "", generation.CredentialMissing(desc.ID, desc.CredentialSlot)
	}
	return secret, nil
}

// EnvName maps a slot such as "openai_api_key" to OPENAI_API_KEY.
func EnvName(slot string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(slot))
}

type Memory struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewMemory(initial map[string]string) *Memory {
	m := &Memory{secrets: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.secrets[k] = v
	}
	return m
}

func (m *Memory) Get(_ context.Context, slot string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.secrets[slot]
	return s, ok && s != "", nil
}

func (m *Memory) Set(_ context.Context, slot, secret string) error {
	if slot == "" {
		return ErrEmptySlot
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[slot] = secret
	return nil
}

// Chain reads from each store in order and writes to the first one.
type Chain []Store

func (c Chain) Get(ctx context.Context, slot string) (string, bool, error) {
	for _, s := range c {
		secret, ok, err := s.Get(ctx, slot)
		if err != nil {
			return "", false, err
		}
		if ok {
			return secret, true, nil
		}
	}
	return "", false, nil
}

func (c Chain) Set(ctx context.Context, slot, secret string) error {
	if len(c) == 0 {
		return errors.New("credential chain has no stores")
	}
	return c[0].Set(ctx, slot, secret)
}
