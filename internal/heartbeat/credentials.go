package heartbeat

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials are the node's identity issued at registration. The API
// key is shown by the backend exactly once, so losing this file means
// re-registering as a new node.
type Credentials struct {
	NodeID int64  `json:"node_id"`
	APIKey string `json:"api_key"`
}

// LoadCredentials reads saved credentials. A missing file is reported
// as os.ErrNotExist so callers can treat it as "not registered yet".
func LoadCredentials(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	if creds.NodeID == 0 || creds.APIKey == "" {
		return nil, fmt.Errorf("credentials file %s is incomplete", path)
	}
	return &creds, nil
}

// SaveCredentials writes credentials with owner-only permissions.
func SaveCredentials(path string, creds *Credentials) error {
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// HaveCredentials reports whether a usable credentials file exists.
// Presence short-circuits registration on startup.
func HaveCredentials(path string) bool {
	_, err := LoadCredentials(path)
	return err == nil
}
