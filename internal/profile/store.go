package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/doubleninth99/mysql-sync/internal/secret"
)

type storeFile struct {
	Connections []Profile `toml:"connections"`
}

// Store persists profiles to a TOML file. It is safe for concurrent use
// within one process.
type Store struct {
	path   string
	cipher *secret.Cipher
	mu     sync.Mutex
}

func NewStore(path string, cipher *secret.Cipher) *Store {
	return &Store{path: path, cipher: cipher}
}

// Path returns the location of the profile file.
func (s *Store) Path() string { return s.path }

// List returns every profile with its password decrypted.
func (s *Store) List() ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].Password, err = s.cipher.Decrypt(profiles[i].Password); err != nil {
			return nil, fmt.Errorf("profile %s: %w", profiles[i].Name, err)
		}
	}
	return profiles, nil
}

// Get finds a profile by ID, then by name.
func (s *Store) Get(idOrName string) (Profile, error) {
	profiles, err := s.List()
	if err != nil {
		return Profile{}, err
	}
	for _, p := range profiles {
		if p.ID == idOrName {
			return p, nil
		}
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, idOrName) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, idOrName)
}

// Save inserts p, or replaces the stored profile with the same ID. A new
// profile gets a random UUID. The saved profile is returned with its password
// in plaintext.
func (s *Store) Save(p Profile) (Profile, error) {
	if err := validate(p); err != nil {
		return Profile{}, err
	}
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("%s@%s", p.User, p.Host)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return Profile{}, err
	}

	stored := p
	if stored.Password, err = s.cipher.Encrypt(p.Password); err != nil {
		return Profile{}, err
	}

	replaced := false
	if p.ID != "" {
		for i := range profiles {
			if profiles[i].ID == p.ID {
				profiles[i] = stored
				replaced = true
				break
			}
		}
	} else {
		p.ID = uuid.NewString()
		stored.ID = p.ID
	}
	if !replaced {
		profiles = append(profiles, stored)
	}

	if err := s.write(profiles); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Delete removes the profile with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			profiles = append(profiles[:i], profiles[i+1:]...)
			return s.write(profiles)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func validate(p Profile) error {
	var missing []string
	if strings.TrimSpace(p.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(p.User) == "" {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidProfile, strings.Join(missing, ", "))
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidProfile, p.Port)
	}
	return nil
}

func (s *Store) read() ([]Profile, error) {
	var sf storeFile
	if _, err := toml.DecodeFile(s.path, &sf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profiles %q: %w", s.path, err)
	}
	return sf.Connections, nil
}

// write replaces the file atomically.
// 0600 permissions means read/write for owner only, since the file holds credentials.
func (s *Store) write(profiles []Profile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(storeFile{Connections: profiles}); err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".connections-*.toml")
	if err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}
