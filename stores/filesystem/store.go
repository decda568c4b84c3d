package filesystem

import (
	"context"
	"fmt"
	"goods-manager/core"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store. Each key is one file under basePath.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) keyPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid key %q: must be a plain name", key)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, key+".json"))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return absPath, nil
}

func (s *fsStore) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Key file not found")
			return nil, fmt.Errorf("key %s: %w", key, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read key file")
		return nil, err
	}

	log.WithField("data_length", len(data)).Debug("Value retrieved successfully")
	return data, nil
}

// Set writes to a temporary file in the same directory and renames it over
// the target, so a crash mid-write leaves the previous document intact.
func (s *fsStore) Set(ctx context.Context, key string, data []byte) error {
	filePath, err := s.keyPath(key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "path": filePath})

	tmp, err := os.CreateTemp(s.basePath, key+".*.tmp")
	if err != nil {
		log.WithError(err).Error("Failed to create temporary file")
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.WithError(err).Error("Failed to write temporary file")
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		log.WithError(err).Error("Failed to sync temporary file")
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		log.WithError(err).Error("Failed to replace key file")
		return err
	}

	log.WithField("data_length", len(data)).Debug("Value saved successfully")
	return nil
}
