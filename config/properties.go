package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/magiconair/properties"
)

// ErrResourceNotFound is returned when no lookup directory holds the resource.
var ErrResourceNotFound = errors.New("resource not found")

func IsResourceNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// PropertiesLoader reads key=value resources from an ordered list of lookup
// directories. The first directory holding the resource wins.
type PropertiesLoader struct {
	dirs []string
}

func NewPropertiesLoader(dirs ...string) *PropertiesLoader {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return &PropertiesLoader{dirs: dirs}
}

// Resolve returns the path of the first matching resource.
func (l *PropertiesLoader) Resolve(name string) (string, error) {
	for _, dir := range l.dirs {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("property file %q: %w", name, ErrResourceNotFound)
}

// Load resolves name and parses it into a flat key to value map.
func (l *PropertiesLoader) Load(name string) (map[string]string, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	slog.Info("loading properties file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open properties: %w", err)
	}
	defer f.Close()

	return readProperties(f)
}

func readProperties(r io.Reader) (map[string]string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}

	p, err := properties.Load(buf, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	return p.Map(), nil
}
