// Package profile persists the active fan profile and maps temperatures to
// PWM duty values.
package profile

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/restartfu/truefan/internal/domain"
)

const (
	DefaultFile = "fan_profile.conf"
	key         = "profile="
)

// Store keeps the active profile as a single "profile=<name>" line. Names are
// stored as given; callers decide whether a name is acceptable.
type Store struct {
	path   string
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	if path == "" {
		path = DefaultFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the stored profile, or DefaultProfile when the file is missing,
// unreadable or has no profile line.
func (s *Store) Load() domain.Profile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("failed reading profile file", "path", s.path, "error", err)
		}
		return domain.DefaultProfile
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, key) {
			continue
		}
		if name := strings.TrimSpace(strings.TrimPrefix(line, key)); name != "" {
			return domain.Profile(name)
		}
		break
	}
	return domain.DefaultProfile
}

// Save overwrites the file with the given profile.
func (s *Store) Save(name domain.Profile) error {
	if err := os.WriteFile(s.path, []byte(key+string(name)+"\n"), 0o644); err != nil {
		return fmt.Errorf("save profile to %s: %w: %v", s.path, domain.ErrWriteFailed, err)
	}
	s.logger.Info("profile set", "profile", name)
	return nil
}
