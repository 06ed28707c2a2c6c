package storage

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/marin55/pixelstory/internal/domain"
)

// Archive flavors offered by the download endpoints.
const (
	ArchiveImages = "images" // frames only
	ArchiveAll    = "all"    // frames + gif + story
	ArchiveExport = "export" // everything + metadata.json
)

// WriteArchive streams a ZIP bundle of a character's artifacts. kind selects
// which artifacts are included.
func (m *FileManager) WriteArchive(w io.Writer, ch *domain.Character, kind string) error {
	zw := zip.NewWriter(w)

	for _, img := range ch.Images {
		name := fmt.Sprintf("images/%d_%s.png", img.Index, img.Direction)
		if err := m.copyFile(zw, name, m.ImagePath(ch.ID, img.Direction, img.Index)); err != nil {
			return err
		}
	}

	if kind == ArchiveAll || kind == ArchiveExport {
		if ch.GIF != nil {
			if err := m.copyFile(zw, "rotation.gif", m.GIFPath(ch.ID)); err != nil {
				return err
			}
		}
		if ch.Story != "" {
			f, err := zw.Create("story.txt")
			if err != nil {
				return err
			}
			if _, err := f.Write([]byte(ch.Story)); err != nil {
				return err
			}
		}
	}

	if kind == ArchiveExport {
		meta, err := json.MarshalIndent(ch, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		f, err := zw.Create("metadata.json")
		if err != nil {
			return err
		}
		if _, err := f.Write(meta); err != nil {
			return err
		}
	}

	return zw.Close()
}

func (m *FileManager) copyFile(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}
