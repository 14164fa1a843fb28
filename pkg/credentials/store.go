package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const credsFile = "creds.json"

// credsPayload mirrors the on-disk credentials file. A populated me.id is the
// proof that a pairing completed for this directory.
type credsPayload struct {
	Me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"me"`
}

// Store keeps one credential directory per session identity under a fixed
// root. Only the identity's own connection ever writes to its directory.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the credential directory for an identity. The connection driver
// places its session database next to the credentials file.
func (s *Store) Dir(identity string) string {
	return filepath.Join(s.root, identity)
}

// HasValid reports whether a completed pairing is stored for the identity.
// Any read or parse failure yields false, it never errors out.
func (s *Store) HasValid(identity string) bool {
	raw, err := os.ReadFile(filepath.Join(s.Dir(identity), credsFile))
	if err != nil {
		return false
	}

	var creds credsPayload
	if err := json.Unmarshal(raw, &creds); err != nil {
		return false
	}

	return creds.Me.ID != ""
}

// WriteIdentity records a completed pairing. Called by the driver once the
// remote side confirms the device.
func (s *Store) WriteIdentity(identity, jid, name string) error {
	dir := s.Dir(identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var creds credsPayload
	creds.Me.ID = jid
	creds.Me.Name = name

	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, credsFile), raw, 0o600)
}

// Clear removes all credential material for the identity. Idempotent.
func (s *Store) Clear(identity string) error {
	return os.RemoveAll(s.Dir(identity))
}
