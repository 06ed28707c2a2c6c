package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/marin55/pixelstory/internal/domain"
	"github.com/marin55/pixelstory/internal/service"
	"github.com/marin55/pixelstory/internal/transport/http/middleware"
	"github.com/marin55/pixelstory/pkg/validator"
)

type CharacterHandler struct {
	characterService  *service.CharacterService
	generationService *service.GenerationService
}

func NewCharacterHandler(characterService *service.CharacterService, generationService *service.GenerationService) *CharacterHandler {
	return &CharacterHandler{
		characterService:  characterService,
		generationService: generationService,
	}
}

// List serves the gallery. Without an explicit status filter only saved,
// completed characters are returned.
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Status: r.URL.Query().Get("status"),
	}

	if opts.Status != "" && opts.Status != domain.StatusGenerating &&
		opts.Status != domain.StatusCompleted && opts.Status != domain.StatusFailed {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status filter")
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	characters, err := h.characterService.List(r.Context(), opts)
	if err != nil {
		log.Printf("ERROR list characters: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"characters": characters,
		"total":      len(characters),
	})
}

func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ch, err := h.characterService.Get(r.Context(), id, true)
	if err != nil {
		writeCharacterError(w, "get character", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"character": ch})
}

// Status reports the generation state, with live progress while this process
// is still generating the character.
func (h *CharacterHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ch, err := h.characterService.Get(r.Context(), id, false)
	if err != nil {
		writeCharacterError(w, "character status", err)
		return
	}

	progress := 0.0
	switch ch.Status {
	case domain.StatusCompleted:
		progress = 1.0
	case domain.StatusGenerating:
		if done, total, live := h.generationService.Progress(id); live && total > 0 {
			progress = float64(done) / float64(total)
			if progress > 0.9 {
				progress = 0.9
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       ch.ID,
		"status":   ch.Status,
		"progress": progress,
	})
}

func (h *CharacterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input domain.CharacterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateCharacterForm(input.Name, input.CharacterClass, input.Personality, input.Appearance, input.ImageCount); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())

	ch, err := h.generationService.Generate(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, service.ErrGeneration) {
			log.Printf("ERROR generation: %v", err)
			writeError(w, http.StatusBadGateway, "GENERATION_FAILED", "Character generation failed")
		} else {
			log.Printf("ERROR generate: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"character": ch})
}

func (h *CharacterHandler) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ch, err := h.characterService.Save(r.Context(), id)
	if err != nil {
		writeCharacterError(w, "save character", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Character saved to gallery",
		"character": ch,
	})
}

func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.characterService.Delete(r.Context(), id, userID); err != nil {
		writeCharacterError(w, "delete character", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Character deleted"})
}

// pathID parses the {id} path segment, answering 404 on malformed IDs the
// same way a missing record does.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Character not found")
		return uuid.Nil, false
	}
	return id, true
}

func writeCharacterError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCharacterNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Character not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not own this character")
	case errors.Is(err, service.ErrNotCompleted):
		writeError(w, http.StatusBadRequest, "NOT_COMPLETED", "Character generation is not completed yet")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
