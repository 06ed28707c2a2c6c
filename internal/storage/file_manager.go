// Package storage keeps generated artifacts on the local filesystem and maps
// them to the public static URL space.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileManager lays characters out as <root>/characters/<id>/<index>_<direction>.png
// with the rotation GIF next to them. Paths are derived, never stored, so the
// database only carries URLs.
type FileManager struct {
	root       string
	publicBase string
}

func NewFileManager(root, publicBase string) *FileManager {
	return &FileManager{
		root:       root,
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}
}

func (m *FileManager) characterDir(id uuid.UUID) string {
	return filepath.Join(m.root, "characters", id.String())
}

// ImagePath returns the on-disk location of one generated frame.
func (m *FileManager) ImagePath(id uuid.UUID, direction string, index int) string {
	return filepath.Join(m.characterDir(id), fmt.Sprintf("%d_%s.png", index, direction))
}

// GIFPath returns the on-disk location of the rotation GIF.
func (m *FileManager) GIFPath(id uuid.UUID) string {
	return filepath.Join(m.characterDir(id), "rotation.gif")
}

func (m *FileManager) SaveImage(id uuid.UUID, direction string, index int, data []byte) (string, error) {
	path := m.ImagePath(id, direction, index)
	if err := m.write(path, data); err != nil {
		return "", err
	}
	return m.url(id, fmt.Sprintf("%d_%s.png", index, direction)), nil
}

func (m *FileManager) SaveGIF(id uuid.UUID, data []byte) (string, error) {
	path := m.GIFPath(id)
	if err := m.write(path, data); err != nil {
		return "", err
	}
	return m.url(id, "rotation.gif"), nil
}

// Remove deletes every stored artifact of a character. Missing directories
// are not an error, so removal stays idempotent.
func (m *FileManager) Remove(id uuid.UUID) error {
	if err := os.RemoveAll(m.characterDir(id)); err != nil {
		return fmt.Errorf("removing character dir: %w", err)
	}
	return nil
}

func (m *FileManager) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

func (m *FileManager) url(id uuid.UUID, name string) string {
	return m.publicBase + "/characters/" + id.String() + "/" + name
}
