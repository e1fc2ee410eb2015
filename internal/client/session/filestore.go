package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"github.com/karim1349/app-psy-sophia-sub000/internal/cryptox"
)

const (
	credentialsFileName = "credentials.bin"
	secretFileName      = "install.secret"

	saltSize   = 16
	secretSize = 32
)

// envelope is the on-disk layout of the sealed credential pair. The
// salt and nonce are fresh on every write.
type envelope struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// FileStore keeps the token pair sealed in a file under the data
// directory. The sealing key is derived from a random per-install
// secret, so the credentials resist casual inspection of the disk.
// Writes go through a temp file and rename so a crash mid-write never
// leaves a torn pair behind.
type FileStore struct {
	mu         sync.Mutex
	path       string
	secretPath string
}

// NewFileStore returns a store rooted at dir. The directory must exist.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		path:       filepath.Join(dir, credentialsFileName),
		secretPath: filepath.Join(dir, secretFileName),
	}
}

func (s *FileStore) Get(ctx context.Context) (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}

	secret, err := s.loadSecret()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	key := cryptox.DeriveKey(secret, env.Salt)
	defer common.WipeByteArray(key)

	var pair TokenPair
	if err := cryptox.Open(env.Ciphertext, env.Nonce, key, &pair); err != nil {
		return nil, fmt.Errorf("unsealing credentials: %w", err)
	}
	return &pair, nil
}

func (s *FileStore) Set(ctx context.Context, pair *TokenPair) error {
	if !pair.Valid() {
		return common.ErrIncompletePair
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	secret, err := s.loadOrCreateSecret()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Seal(pair, key)
	if err != nil {
		return fmt.Errorf("sealing credentials: %w", err)
	}

	data, err := json.Marshal(envelope{Salt: salt, Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("committing credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

func (s *FileStore) loadSecret() ([]byte, error) {
	secret, err := os.ReadFile(s.secretPath)
	if err != nil {
		return nil, fmt.Errorf("reading install secret: %w", err)
	}
	return secret, nil
}

// loadOrCreateSecret reads the per-install secret, minting one on first
// use. The secret survives Clear: it protects future pairs, not the
// current session.
func (s *FileStore) loadOrCreateSecret() ([]byte, error) {
	secret, err := os.ReadFile(s.secretPath)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading install secret: %w", err)
	}

	secret = common.GenerateRandByteArray(secretSize)
	if err := os.WriteFile(s.secretPath, secret, 0o600); err != nil {
		return nil, fmt.Errorf("writing install secret: %w", err)
	}
	return secret, nil
}
