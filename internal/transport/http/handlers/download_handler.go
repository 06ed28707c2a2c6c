package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/marin55/pixelstory/internal/domain"
	"github.com/marin55/pixelstory/internal/service"
	"github.com/marin55/pixelstory/internal/storage"
)

type DownloadHandler struct {
	characterService *service.CharacterService
	files            *storage.FileManager
}

func NewDownloadHandler(characterService *service.CharacterService, files *storage.FileManager) *DownloadHandler {
	return &DownloadHandler{
		characterService: characterService,
		files:            files,
	}
}

// Archive streams a ZIP bundle; the {kind} path segment picks the flavor
// (images, all, export).
func (h *DownloadHandler) Archive(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, ok := h.completedCharacter(w, r)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ch.Name+"_"+kind+".zip"))

		if err := h.files.WriteArchive(w, ch, kind); err != nil {
			// Headers are already out; only log.
			log.Printf("ERROR streaming %s archive for %s: %v", kind, ch.ID, err)
		}
	}
}

func (h *DownloadHandler) GIF(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.completedCharacter(w, r)
	if !ok {
		return
	}
	if ch.GIF == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "GIF not found")
		return
	}

	path := h.files.GIFPath(ch.ID)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "GIF file not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ch.Name+".gif"))
	http.ServeFile(w, r, path)
}

// ImageByDirection serves a single frame by its compass tag.
func (h *DownloadHandler) ImageByDirection(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.completedCharacter(w, r)
	if !ok {
		return
	}

	dir := r.PathValue("direction")
	if !domain.ValidDirection(dir) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Unknown direction")
		return
	}

	img := ch.ImageByDirection(dir)
	if img == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No image for this direction")
		return
	}

	path := h.files.ImagePath(ch.ID, img.Direction, img.Index)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Image file not found")
		return
	}

	http.ServeFile(w, r, path)
}

// completedCharacter loads the character and rejects downloads for records
// without generated artifacts.
func (h *DownloadHandler) completedCharacter(w http.ResponseWriter, r *http.Request) (*domain.Character, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	ch, err := h.characterService.Get(r.Context(), id, false)
	if err != nil {
		writeCharacterError(w, "download", err)
		return nil, false
	}
	if ch.Status != domain.StatusCompleted || len(ch.Images) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No artifacts available")
		return nil, false
	}
	return ch, true
}
