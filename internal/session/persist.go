package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/electisspace/spacectl/internal/api"
)

const stateFileName = "session.json"

// StateFile persists the user snapshot and active context between
// processes. Tokens live elsewhere; this file carries identity and
// context only and is never treated as proof of authentication.
type StateFile struct {
	path string
}

// NewStateFile stores session state under dir.
func NewStateFile(dir string) *StateFile {
	return &StateFile{path: filepath.Join(dir, stateFileName)}
}

type persistedState struct {
	User            *api.User `json:"user,omitempty"`
	ActiveCompanyID string    `json:"activeCompanyId,omitempty"`
	ActiveStoreID   string    `json:"activeStoreId,omitempty"`
}

// Save writes the session state with owner-only permissions.
func (f *StateFile) Save(user *api.User, companyID, storeID string) error {
	data, err := json.MarshalIndent(persistedState{
		User:            user,
		ActiveCompanyID: companyID,
		ActiveStoreID:   storeID,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

// Load reads the persisted state. A missing file returns ok=false with
// no error.
func (f *StateFile) Load() (user *api.User, companyID, storeID string, ok bool, err error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", "", false, nil
	}
	if err != nil {
		return nil, "", "", false, fmt.Errorf("reading session state: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, "", "", false, fmt.Errorf("parsing session state: %w", err)
	}
	return state.User, state.ActiveCompanyID, state.ActiveStoreID, true, nil
}

// Delete removes the state file. Absence is not an error.
func (f *StateFile) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session state: %w", err)
	}
	return nil
}
