package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medication-adherence-tracker/internal/domain/prescriptions"
	"medication-adherence-tracker/internal/domain/schedules"
	"medication-adherence-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, schedSvc *schedules.Service, presSvc *prescriptions.Service) {
	r.Route("/schedules/{scheduleID}/doses", func(dr chi.Router) {
		dr.Post("/generate", generateDosesHandler(svc, schedSvc, presSvc))
		dr.Get("/", listScheduleDosesHandler(svc, schedSvc))
	})

	r.Get("/me/doses", listMyDosesHandler(svc, schedSvc))

	r.Route("/doses/{doseID}", func(dr chi.Router) {
		dr.Post("/taken", markTakenHandler(svc))
		dr.Post("/skipped", markSkippedHandler(svc))
	})
}

type generateRequest struct {
	From string `json:"from"` // RFC3339
	To   string `json:"to"`   // RFC3339
}

// doseResponse decora la fila persistida con su clasificación viva:
// effective_status puede ser MISSED aunque en storage siga SCHEDULED.
type doseResponse struct {
	ID              string     `json:"id"`
	ScheduleID      string     `json:"schedule_id"`
	PrescriptionID  string     `json:"prescription_id"`
	ScheduledFor    time.Time  `json:"scheduled_for"`
	Status          Status     `json:"status"`
	EffectiveStatus Status     `json:"effective_status"`
	Interactable    bool       `json:"interactable"`
	TakenAt         *time.Time `json:"taken_at,omitempty"`
	Quantity        string     `json:"quantity,omitempty"`
	Unit            string     `json:"unit,omitempty"`
}

type markTakenRequest struct {
	TakenAt string `json:"taken_at"` // RFC3339 opcional; default "ahora"
}

// generateDosesHandler godoc
// @Summary Generar tomas de un schedule
// @Description Expande el patrón semanal del schedule en la ventana [from,to] y persiste las instancias con idempotencia: repetir el mismo request no crea duplicados (generated=0 la segunda vez). Ventanas de más de 365 días se rechazan. La respuesta trae contadores; errors[] no vacío con generated>0 es falla parcial, no error del request.
// @Tags doses
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param scheduleID path string true "ID del schedule"
// @Param payload body generateRequest true "Ventana de generación, RFC3339"
// @Success 200 {object} GenerationResult
// @Failure 400 {string} string "ventana inválida o demasiado grande"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "schedule not found"
// @Failure 500 {string} string "persistence failure"
// @Router /schedules/{scheduleID}/doses/generate [post]
func generateDosesHandler(svc *Service, schedSvc *schedules.Service, presSvc *prescriptions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sch, ok := authorizeSchedule(w, r, schedSvc)
		if !ok {
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			http.Error(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			http.Error(w, "to must be RFC3339", http.StatusBadRequest)
			return
		}

		// Sin la prescripción no hay techo ni defaults: generar igual podría
		// persistir tomas más allá del fin recetado. Una falla de lectura
		// aborta, no degrada.
		p, err := presSvc.GetByID(r.Context(), sch.PrescriptionID)
		if err != nil {
			http.Error(w, "persistence failure", http.StatusInternalServerError)
			return
		}

		opts := GenerateOptions{
			From:            from,
			To:              to,
			PrescriptionEnd: p.EndDate,
			DefaultQuantity: p.DoseQuantity,
			DefaultUnit:     p.DoseUnit,
		}

		res, err := svc.Generate(r.Context(), sch, opts)
		if err != nil {
			if errors.Is(err, schedules.ErrWindowTooLarge) || errors.Is(err, schedules.ErrBadTimezone) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			// Falla de persistencia: server-side fault.
			http.Error(w, "persistence failure", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func listScheduleDosesHandler(svc *Service, schedSvc *schedules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sch, ok := authorizeSchedule(w, r, schedSvc)
		if !ok {
			return
		}

		from, to, err := parseRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListBySchedule(r.Context(), sch.ID, from, to)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out, err := decorate(r, svc, items)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listMyDosesHandler(svc *Service, schedSvc *schedules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		from, to, err := parseRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByOwner(r.Context(), userID, from, to)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out, err := decorate(r, svc, items)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := authorizeDose(w, r, svc)
		if !ok {
			return
		}

		var takenAt *time.Time
		var req markTakenRequest
		// body opcional
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && strings.TrimSpace(req.TakenAt) != "" {
			t, err := time.Parse(time.RFC3339, req.TakenAt)
			if err != nil {
				http.Error(w, "taken_at must be RFC3339", http.StatusBadRequest)
				return
			}
			takenAt = &t
		}

		updated, err := svc.MarkTaken(r.Context(), d.ID, takenAt)
		if err != nil {
			writeTransitionError(w, err)
			return
		}
		resp, err := toDoseResponse(r, svc, updated)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func markSkippedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := authorizeDose(w, r, svc)
		if !ok {
			return
		}

		updated, err := svc.MarkSkipped(r.Context(), d.ID)
		if err != nil {
			writeTransitionError(w, err)
			return
		}
		resp, err := toDoseResponse(r, svc, updated)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func authorizeSchedule(w http.ResponseWriter, r *http.Request, schedSvc *schedules.Service) (schedules.Schedule, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return schedules.Schedule{}, false
	}

	sch, err := schedSvc.GetByID(r.Context(), chi.URLParam(r, "scheduleID"))
	if err != nil {
		http.Error(w, "schedule not found", http.StatusNotFound)
		return schedules.Schedule{}, false
	}
	if sch.OwnerUserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return schedules.Schedule{}, false
	}
	return sch, true
}

func authorizeDose(w http.ResponseWriter, r *http.Request, svc *Service) (DoseInstance, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return DoseInstance{}, false
	}

	d, err := svc.GetByID(r.Context(), chi.URLParam(r, "doseID"))
	if err != nil {
		http.Error(w, "dose not found", http.StatusNotFound)
		return DoseInstance{}, false
	}
	if d.OwnerUserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return DoseInstance{}, false
	}
	return d, true
}

func writeTransitionError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotInteractable) {
		// La toma ya es de solo lectura (día vencido o estado terminal).
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// parseRange lee ?from=&to= (RFC3339). Default: desde ayer hasta +7 días.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -1)
	to := now.AddDate(0, 0, 7)

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC3339")
		}
		from = t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC3339")
		}
		to = t
	}
	return from, to, nil
}

func decorate(r *http.Request, svc *Service, items []DoseInstance) ([]doseResponse, error) {
	out := make([]doseResponse, 0, len(items))
	for _, d := range items {
		resp, err := toDoseResponse(r, svc, d)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func toDoseResponse(r *http.Request, svc *Service, d DoseInstance) (doseResponse, error) {
	st, interactable, err := svc.Classify(r.Context(), d)
	if err != nil {
		return doseResponse{}, err
	}
	return doseResponse{
		ID:              d.ID,
		ScheduleID:      d.ScheduleID,
		PrescriptionID:  d.PrescriptionID,
		ScheduledFor:    d.ScheduledFor,
		Status:          d.Status,
		EffectiveStatus: st,
		Interactable:    interactable,
		TakenAt:         d.TakenAt,
		Quantity:        d.Quantity,
		Unit:            d.Unit,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
