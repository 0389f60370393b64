package prescriptions

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"medication-adherence-tracker/internal/domain/medications"
	"medication-adherence-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, medsSvc *medications.Service) {
	r.Route("/prescriptions", func(pr chi.Router) {
		pr.Post("/", createPrescriptionHandler(svc, medsSvc))
		pr.Get("/", listPrescriptionsHandler(svc))
		pr.Get("/{prescriptionID}", getPrescriptionHandler(svc))
	})
}

type createPrescriptionRequest struct {
	MedicationID string `json:"medication_id"`
	PrescribedBy string `json:"prescribed_by"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD opcional
	EndDate      string `json:"end_date"`   // YYYY-MM-DD opcional; techo de generación
	DoseQuantity string `json:"dose_quantity"`
	DoseUnit     string `json:"dose_unit"`
	Notes        string `json:"notes"`
}

type prescriptionResponse struct {
	ID           string     `json:"id"`
	OwnerUserID  string     `json:"owner_user_id"`
	MedicationID string     `json:"medication_id"`
	PrescribedBy string     `json:"prescribed_by"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DoseQuantity string     `json:"dose_quantity"`
	DoseUnit     string     `json:"dose_unit"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func createPrescriptionHandler(svc *Service, medsSvc *medications.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// El medicamento debe existir y ser del mismo usuario.
		m, err := medsSvc.GetByID(r.Context(), req.MedicationID)
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}
		if m.OwnerUserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		start, err := parseDate(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := parseDate(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), userID, CreateInput{
			MedicationID: req.MedicationID,
			PrescribedBy: req.PrescribedBy,
			StartDate:    start,
			EndDate:      end,
			DoseQuantity: req.DoseQuantity,
			DoseUnit:     req.DoseUnit,
			Notes:        req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toPrescriptionResponse(p))
	}
}

func listPrescriptionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]prescriptionResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPrescriptionResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPrescriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "prescriptionID"))
		if err != nil {
			http.Error(w, "prescription not found", http.StatusNotFound)
			return
		}
		if p.OwnerUserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
	}
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

func toPrescriptionResponse(p Prescription) prescriptionResponse {
	return prescriptionResponse{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		MedicationID: p.MedicationID,
		PrescribedBy: p.PrescribedBy,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		DoseQuantity: p.DoseQuantity,
		DoseUnit:     p.DoseUnit,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
