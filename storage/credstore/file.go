// Package credstore persists the single session State blob. The file store is
// the production implementation; MemStore backs tests.
package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/session"
)

type FileStore struct {
	path   string
	logger core.Logger
}

var _ session.Store = (*FileStore)(nil)

func NewFileStore(path string, logger core.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Load() (*session.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "credstore: reading %s", s.path)
	}

	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		// a corrupt blob is treated as absence of a credential
		s.logger.Warn("credstore: discarding corrupt session state", err)
		return nil, nil
	}
	if st.Credential.Token == "" {
		return nil, nil
	}
	return &st, nil
}

func (s *FileStore) Save(st *session.State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "credstore: creating state dir")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "credstore: encoding state")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrapf(err, "credstore: writing %s", s.path)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "credstore: removing %s", s.path)
	}
	return nil
}
