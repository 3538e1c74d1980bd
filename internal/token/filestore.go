package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const credentialsFile = "credentials.json"

// storedCredentials is the on-disk shape of persisted tokens.
type storedCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Email        string `json:"email,omitempty"`
}

// FileStore persists tokens in the spacectl config directory so a new
// process can attempt a silent session restore.
type FileStore struct {
	dir string
}

// NewFileStore creates a credential store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Save writes the tokens to disk with owner-only permissions.
func (s *FileStore) Save(access, refresh, email string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(storedCredentials{
		AccessToken:  access,
		RefreshToken: refresh,
		Email:        email,
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(), data, 0600)
}

// Load reads persisted tokens. A missing file is reported via os.IsNotExist.
func (s *FileStore) Load() (access, refresh, email string, err error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return "", "", "", err
	}

	var creds storedCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", "", "", fmt.Errorf("parse credentials file: %w", err)
	}

	return creds.AccessToken, creds.RefreshToken, creds.Email, nil
}

// Delete removes the credentials file. Deleting a non-existent file is
// not an error: logout must always succeed locally.
func (s *FileStore) Delete() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
