package session

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// ErrPartialCredentials is returned when a caller tries to persist only one
// half of the token pair. Both tokens are present or both are absent.
var ErrPartialCredentials = errors.New("session: access and refresh token must be stored together")

// Credentials is the persisted token pair. The access token is attached to
// outbound requests; the refresh token is exchanged for a new access token
// when the old one expires.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Present reports whether a full token pair is available.
func (c Credentials) Present() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

func (c Credentials) partial() bool {
	return (c.AccessToken == "") != (c.RefreshToken == "")
}

// CredentialStore persists the token pair across whatever scope the hosting
// application chooses: in memory for the lifetime of the process, or on disk
// to survive restarts.
type CredentialStore interface {
	Load() (Credentials, error)
	Save(creds Credentials) error
	Clear() error
}

// MemoryCredentialStore keeps the token pair in process memory only.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds Credentials
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemoryCredentialStore) Save(creds Credentials) error {
	if creds.partial() {
		return ErrPartialCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

// FileCredentialStore persists the token pair as a JSON file, so a restarted
// process can resume the session.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Load reads the stored pair. A missing file is not an error: it simply means
// no session has been persisted yet.
func (s *FileCredentialStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (s *FileCredentialStore) Save(creds Credentials) error {
	if creds.partial() {
		return ErrPartialCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
