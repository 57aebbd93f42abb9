// Package secret stores credentials in the operating system keyring.
package secret

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ServiceName is the keyring service all memeagent secrets live under.
const ServiceName = "memeagent"

// ErrSecretNotFound is returned when no secret is stored under a key.
var ErrSecretNotFound = errors.New("secret not found")

// KeyringStore reads and writes secrets in the OS keyring.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store for ServiceName.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: ServiceName}
}

func (k *KeyringStore) Get(key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		return "", toError(key, err)
	}
	return value, nil
}

func (k *KeyringStore) Set(key, value string) error {
	if value == "" {
		return fmt.Errorf("secret %q: value must not be empty", key)
	}
	if err := keyring.Set(k.service, key, value); err != nil {
		return toError(key, err)
	}
	return nil
}

func (k *KeyringStore) Delete(key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		return toError(key, err)
	}
	return nil
}

func toError(key string, err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}
	if errors.Is(err, keyring.ErrSetDataTooBig) {
		return fmt.Errorf("secret %q is too large: %w", key, err)
	}
	return fmt.Errorf("keyring error for %q: %w", key, err)
}
