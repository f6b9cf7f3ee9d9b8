package jarstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"environovalab/oops"

	"gopkg.in/yaml.v3"
)

// FileStore keeps jars in a YAML file. It's meant for the command line client, where there's a
// single user and no database.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileJar struct {
	UpdatedAt time.Time `yaml:"updated_at"`
	Cookies   []Cookie  `yaml:"cookies"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (map[string]fileJar, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]fileJar{}, nil
	} else if err != nil {
		return nil, oops.Wrap(err)
	}

	jars := map[string]fileJar{}
	if err := yaml.Unmarshal(content, &jars); err != nil {
		return nil, oops.Wrapf(err, "parse %s", s.path)
	}
	if jars == nil {
		jars = map[string]fileJar{}
	}
	return jars, nil
}

func (s *FileStore) write(jars map[string]fileJar) error {
	content, err := yaml.Marshal(jars)
	if err != nil {
		return oops.Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return oops.Wrap(err)
	}
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0600); err != nil {
		return oops.Wrap(err)
	}
	return oops.Wrap(os.Rename(tempPath, s.path))
}

func (s *FileStore) Migrate(ctx context.Context) error {
	return nil
}

func (s *FileStore) Load(ctx context.Context, key string) ([]Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jars, err := s.read()
	if err != nil {
		return nil, err
	}
	return jars[key].Cookies, nil
}

func (s *FileStore) Save(ctx context.Context, key string, cookies []Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jars, err := s.read()
	if err != nil {
		return err
	}
	jars[key] = fileJar{
		UpdatedAt: time.Now().UTC(),
		Cookies:   cookies,
	}
	return s.write(jars)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jars, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := jars[key]; !ok {
		return nil
	}
	delete(jars, key)
	return s.write(jars)
}

func (s *FileStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jars, err := s.read()
	if err != nil {
		return 0, err
	}
	var count int64
	for key, jar := range jars {
		if jar.UpdatedAt.Before(before) {
			delete(jars, key)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return count, s.write(jars)
}

func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)
