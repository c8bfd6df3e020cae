package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/game"
)

// RESTHandler serves the small HTTP API around the session engine: game
// creation (which mints the game code) and lobby/quiz lookups.
type RESTHandler struct {
	service *game.Service
	log     zerolog.Logger
}

func NewRESTHandler(service *game.Service, log zerolog.Logger) *RESTHandler {
	return &RESTHandler{service: service, log: log.With().Str("component", "rest").Logger()}
}

// Register mounts the API routes onto mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.createGame)
	mux.HandleFunc("GET /api/games/{gameCode}", h.getGame)
	mux.HandleFunc("GET /api/quizzes/{id}", h.getQuiz)
}

func (h *RESTHandler) createGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quizId is required")
		return
	}

	session, err := h.service.CreateGame(r.Context(), req.QuizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "Quiz not found")
			return
		}
		if errors.Is(err, domain.ErrQuizEmpty) {
			writeError(w, http.StatusBadRequest, "Quiz has no questions")
			return
		}
		h.log.Error().Err(err).Str("quiz_id", req.QuizID).Msg("create game failed")
		writeError(w, http.StatusInternalServerError, "Failed to create game")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"gameCode": session.Code(),
		"gameId":   session.GameID(),
	})
}

func (h *RESTHandler) getGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.PathValue("gameCode"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *RESTHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "Quiz not found")
			return
		}
		h.log.Error().Err(err).Msg("quiz fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch quiz")
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
