package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// calculationError distinguishes a data problem ("calculation failed",
// needs an integrity fix) from an internal failure. The empty steady state
// is never reported through here.
func (s *Server) calculationError(w http.ResponseWriter, err error) {
	var unknownEx *engine.UnknownExerciseError
	var invalidSet *engine.InvalidSetError
	var noBaseline *engine.BaselineMissingError
	if errors.As(err, &unknownEx) || errors.As(err, &invalidSet) || errors.As(err, &noBaseline) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"state": "calculation_failed",
		})
		return
	}
	s.log.Error("workout processing failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (s *Server) handleProcessWorkout(w http.ResponseWriter, r *http.Request) {
	var workout models.Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	workout.UserID = userIDFrom(r.Context())

	result, err := s.eng.ProcessWorkout(r.Context(), &workout)
	if err != nil {
		s.calculationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMuscleStates(w http.ResponseWriter, r *http.Request) {
	at, err := parseAt(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	states, err := s.eng.CurrentStates(r.Context(), userIDFrom(r.Context()), at)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleRecoveryQuery(w http.ResponseWriter, r *http.Request) {
	muscle, ok := muscleParam(w, r)
	if !ok {
		return
	}
	at, err := parseAt(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, err := s.eng.RecoveryAt(r.Context(), userIDFrom(r.Context()), muscle, at)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRecoveryTimeline(w http.ResponseWriter, r *http.Request) {
	muscle, ok := muscleParam(w, r)
	if !ok {
		return
	}
	at, err := parseAt(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	points, err := s.eng.RecoveryTimeline(r.Context(), userIDFrom(r.Context()), muscle, at, 7)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	bests, err := s.eng.PersonalBests(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bests)
}

func (s *Server) handleRecordEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.ListPREvents(r.Context(), userIDFrom(r.Context()), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleBaselines(w http.ResponseWriter, r *http.Request) {
	baselines, err := s.db.Baselines(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Stable order for clients.
	out := make([]models.MuscleBaseline, 0, len(baselines))
	for _, m := range catalog.AllMuscles {
		if b, ok := baselines[m]; ok {
			out = append(out, b)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetBaselineOverride(w http.ResponseWriter, r *http.Request) {
	muscle, ok := muscleParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Override *float64 `json:"override"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.Override != nil && *body.Override <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "override must be positive"})
		return
	}

	if err := s.db.SetBaselineOverride(r.Context(), userIDFrom(r.Context()), muscle, body.Override); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Exercises())
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workouts, err := s.db.QueryWorkouts(r.Context(), userIDFrom(r.Context()), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	volumes, err := s.eng.TrainingVolume(r.Context(), userIDFrom(r.Context()), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, volumes)
}

// dateRange reads optional start/end query parameters (YYYY-MM-DD),
// defaulting to the last 7 days.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -7)
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		end = t
	}
	return start, end, nil
}

// parseAt reads the optional "at" query parameter (RFC 3339), defaulting
// to now.
func parseAt(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("at")
	if v == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, v)
}

// muscleParam parses the {muscle} URL parameter, writing a 400 on failure.
func muscleParam(w http.ResponseWriter, r *http.Request) (catalog.Muscle, bool) {
	name := chi.URLParam(r, "muscle")
	m, ok := catalog.ParseMuscle(name)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown muscle: " + name})
		return "", false
	}
	return m, true
}
