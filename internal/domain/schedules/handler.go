package schedules

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"medication-adherence-tracker/internal/domain/prescriptions"
	"medication-adherence-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, presSvc *prescriptions.Service) {
	r.Route("/prescriptions/{prescriptionID}/schedules", func(sr chi.Router) {
		sr.Post("/", createScheduleHandler(svc, presSvc))
		sr.Get("/", listSchedulesHandler(svc, presSvc))

		// Pre-chequeo de conflictos sin persistir nada.
		sr.Post("/check", checkConflictsHandler(svc, presSvc))
	})
}

// createScheduleRequest es el cuerpo para definir un patrón semanal de tomas.
type createScheduleRequest struct {
	Days       []string `json:"days"`  // MON..SUN
	Times      []string `json:"times"` // "HH:mm"
	Timezone   string   `json:"timezone"`
	ValidFrom  string   `json:"valid_from"`  // YYYY-MM-DD opcional
	ValidUntil string   `json:"valid_until"` // YYYY-MM-DD opcional
	Quantity   string   `json:"quantity"`    // decimal positivo opcional
	Unit       string   `json:"unit"`
}

type scheduleResponse struct {
	ID             string     `json:"id"`
	PrescriptionID string     `json:"prescription_id"`
	OwnerUserID    string     `json:"owner_user_id"`
	Days           []Weekday  `json:"days"`
	Times          []string   `json:"times"`
	Timezone       string     `json:"timezone"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	Quantity       string     `json:"quantity,omitempty"`
	Unit           DoseUnit   `json:"unit,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type conflictResponse struct {
	ConflictingScheduleID string    `json:"conflicting_schedule_id"`
	ConflictingWeekdays   []Weekday `json:"conflicting_weekdays"`
	ConflictingTimes      []string  `json:"conflicting_times"`
}

type conflictListResponse struct {
	Conflicts []conflictResponse `json:"conflicts"`
}

// createScheduleHandler godoc
// @Summary Crear schedule de tomas
// @Description Crea un patrón semanal recurrente para la prescripción indicada. Se valida la forma (días/horas no vacíos, zona IANA) y se corre el detector de conflictos contra los demás schedules de la prescripción; si hay choques responde 409 con la lista y no persiste nada.
// @Tags schedules
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param prescriptionID path string true "ID de la prescripción"
// @Param payload body createScheduleRequest true "Patrón semanal; valid_from/valid_until en YYYY-MM-DD"
// @Success 201 {object} scheduleResponse
// @Failure 400 {string} string "invalid json / reglas de forma"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "prescription not found"
// @Failure 409 {object} conflictListResponse
// @Router /prescriptions/{prescriptionID}/schedules [post]
func createScheduleHandler(svc *Service, presSvc *prescriptions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, prescriptionID, ok := authorizePrescription(w, r, presSvc)
		if !ok {
			return
		}

		in, err := decodeCreateInput(r, prescriptionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sch, conflicts, err := svc.Create(r.Context(), userID, in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(conflicts) > 0 {
			writeJSON(w, http.StatusConflict, toConflictList(conflicts))
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleResponse(sch))
	}
}

// checkConflictsHandler corre solo el detector: mismo payload que crear,
// nunca persiste. Siempre 200 con la lista (vacía = sin conflictos).
func checkConflictsHandler(svc *Service, presSvc *prescriptions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, prescriptionID, ok := authorizePrescription(w, r, presSvc)
		if !ok {
			return
		}

		in, err := decodeCreateInput(r, prescriptionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		cand, err := svc.Validate(userID, in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conflicts, err := svc.CheckConflicts(r.Context(), cand)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toConflictList(conflicts))
	}
}

func listSchedulesHandler(svc *Service, presSvc *prescriptions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, prescriptionID, ok := authorizePrescription(w, r, presSvc)
		if !ok {
			return
		}

		items, err := svc.ListByPrescription(r.Context(), prescriptionID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]scheduleResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toScheduleResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// authorizePrescription resuelve user + prescripción y corta con el status
// correspondiente si algo falla. ok=false => la respuesta ya fue escrita.
func authorizePrescription(w http.ResponseWriter, r *http.Request, presSvc *prescriptions.Service) (userID, prescriptionID string, ok bool) {
	userID, ok = middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", "", false
	}

	prescriptionID = chi.URLParam(r, "prescriptionID")
	p, err := presSvc.GetByID(r.Context(), prescriptionID)
	if err != nil {
		http.Error(w, "prescription not found", http.StatusNotFound)
		return "", "", false
	}
	if p.OwnerUserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", "", false
	}

	return userID, prescriptionID, true
}

func decodeCreateInput(r *http.Request, prescriptionID string) (CreateInput, error) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return CreateInput{}, ErrInvalidInput
	}

	from, err := parseDate(req.ValidFrom)
	if err != nil {
		return CreateInput{}, err
	}
	until, err := parseDate(req.ValidUntil)
	if err != nil {
		return CreateInput{}, err
	}

	return CreateInput{
		PrescriptionID: prescriptionID,
		Days:           req.Days,
		Times:          req.Times,
		Timezone:       req.Timezone,
		ValidFrom:      from,
		ValidUntil:     until,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toScheduleResponse(s Schedule) scheduleResponse {
	return scheduleResponse{
		ID:             s.ID,
		PrescriptionID: s.PrescriptionID,
		OwnerUserID:    s.OwnerUserID,
		Days:           s.Days,
		Times:          s.Times,
		Timezone:       s.Timezone,
		ValidFrom:      s.ValidFrom,
		ValidUntil:     s.ValidUntil,
		Quantity:       s.Quantity,
		Unit:           s.Unit,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toConflictList(conflicts []Conflict) conflictListResponse {
	out := make([]conflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictResponse{
			ConflictingScheduleID: c.ConflictingScheduleID,
			ConflictingWeekdays:   c.Weekdays,
			ConflictingTimes:      c.Times,
		})
	}
	return conflictListResponse{Conflicts: out}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
