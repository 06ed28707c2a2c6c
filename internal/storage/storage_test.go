package storage

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marin55/pixelstory/internal/domain"
)

func TestSaveImageLayoutAndURL(t *testing.T) {
	m := NewFileManager(t.TempDir(), "/static/")
	id := uuid.New()

	url, err := m.SaveImage(id, "south", 0, []byte("png-bytes"))
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	want := "/static/characters/" + id.String() + "/0_south.png"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	data, err := os.ReadFile(m.ImagePath(id, "south", 0))
	if err != nil {
		t.Fatalf("reading saved image: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("stored data = %q", data)
	}
}

func TestSaveGIFAndRemove(t *testing.T) {
	m := NewFileManager(t.TempDir(), "/static")
	id := uuid.New()

	if _, err := m.SaveImage(id, "north", 2, []byte("frame")); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	url, err := m.SaveGIF(id, []byte("gif-bytes"))
	if err != nil {
		t.Fatalf("SaveGIF: %v", err)
	}
	want := "/static/characters/" + id.String() + "/rotation.gif"
	if url != want {
		t.Errorf("gif url = %q, want %q", url, want)
	}

	if err := m.Remove(id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(m.GIFPath(id))); !os.IsNotExist(err) {
		t.Errorf("character dir still present after Remove")
	}
	// Removing again must not fail.
	if err := m.Remove(id); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func archivedCharacter(t *testing.T, m *FileManager) *domain.Character {
	t.Helper()
	id := uuid.New()
	ch := &domain.Character{
		ID:     id,
		UserID: uuid.New(),
		Name:   "Shadow Knight",
		Input: domain.CharacterInput{
			Name:           "Shadow Knight",
			CharacterClass: "Warrior",
			Personality:    "brave",
			Appearance:     "silver armor",
			ImageCount:     4,
		},
		Status:    domain.StatusCompleted,
		Story:     "Born under a dark moon.",
		CreatedAt: time.Now(),
	}
	for i, dir := range []string{"north", "east", "south", "west"} {
		url, err := m.SaveImage(id, dir, i, []byte("frame-"+dir))
		if err != nil {
			t.Fatalf("SaveImage %s: %v", dir, err)
		}
		ch.Images = append(ch.Images, domain.CharacterImage{URL: url, Direction: dir, Index: i})
	}
	gifURL, err := m.SaveGIF(id, []byte("gif-bytes"))
	if err != nil {
		t.Fatalf("SaveGIF: %v", err)
	}
	ch.GIF = &domain.CharacterGIF{URL: gifURL, FrameCount: 4, DurationMS: 800}
	return ch
}

func archiveEntries(t *testing.T, m *FileManager, ch *domain.Character, kind string) map[string][]byte {
	t.Helper()
	var buf bytes.Buffer
	if err := m.WriteArchive(&buf, ch, kind); err != nil {
		t.Fatalf("WriteArchive(%s): %v", kind, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading entry %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries
}

func TestWriteArchiveKinds(t *testing.T) {
	m := NewFileManager(t.TempDir(), "/static")
	ch := archivedCharacter(t, m)

	images := archiveEntries(t, m, ch, ArchiveImages)
	if len(images) != 4 {
		t.Errorf("images archive has %d entries, want 4", len(images))
	}
	if string(images["images/2_south.png"]) != "frame-south" {
		t.Errorf("south frame content = %q", images["images/2_south.png"])
	}
	if _, ok := images["rotation.gif"]; ok {
		t.Error("images archive should not contain the gif")
	}

	all := archiveEntries(t, m, ch, ArchiveAll)
	if string(all["rotation.gif"]) != "gif-bytes" {
		t.Errorf("gif entry content = %q", all["rotation.gif"])
	}
	if string(all["story.txt"]) != ch.Story {
		t.Errorf("story entry = %q", all["story.txt"])
	}
	if _, ok := all["metadata.json"]; ok {
		t.Error("all archive should not contain metadata")
	}

	export := archiveEntries(t, m, ch, ArchiveExport)
	var meta domain.Character
	if err := json.Unmarshal(export["metadata.json"], &meta); err != nil {
		t.Fatalf("decoding metadata.json: %v", err)
	}
	if meta.Input.Name != "Shadow Knight" {
		t.Errorf("metadata name = %q", meta.Input.Name)
	}
	if len(export) != 7 {
		t.Errorf("export archive has %d entries, want 7", len(export))
	}
}
