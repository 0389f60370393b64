package medications

import (
	"encoding/json"
	"net/http"
	"time"

	"medication-adherence-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))
		mr.Get("/{medicationID}", getMedicationHandler(svc))

		// Ajuste de inventario (refill / corrección)
		mr.Put("/{medicationID}/stock", setStockHandler(svc))
	})
}

type createMedicationRequest struct {
	Name              string `json:"name"`
	Form              string `json:"form"` // tablet, capsule, liquid, inhaler, injection, other
	Strength          string `json:"strength"`
	StockUnits        int    `json:"stock_units"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	Timezone          string `json:"timezone"` // IANA; default UTC
	Notes             string `json:"notes"`
}

type medicationResponse struct {
	ID                string    `json:"id"`
	OwnerUserID       string    `json:"owner_user_id"`
	Name              string    `json:"name"`
	Form              Form      `json:"form"`
	Strength          string    `json:"strength"`
	StockUnits        int       `json:"stock_units"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Timezone          string    `json:"timezone"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type setStockRequest struct {
	StockUnits int `json:"stock_units"`
}

func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), userID, CreateInput{
			Name:              req.Name,
			Form:              req.Form,
			Strength:          req.Strength,
			StockUnits:        req.StockUnits,
			LowStockThreshold: req.LowStockThreshold,
			Timezone:          req.Timezone,
			Notes:             req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

func listMedicationsHandler(svc *Service) http.HandlerFunc {
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

		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetByID(r.Context(), chi.URLParam(r, "medicationID"))
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}
		if m.OwnerUserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

func setStockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "medicationID")
		m, err := svc.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}
		if m.OwnerUserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req setStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.SetStock(r.Context(), id, req.StockUnits)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	return medicationResponse{
		ID:                m.ID,
		OwnerUserID:       m.OwnerUserID,
		Name:              m.Name,
		Form:              m.Form,
		Strength:          m.Strength,
		StockUnits:        m.StockUnits,
		LowStockThreshold: m.LowStockThreshold,
		Timezone:          m.Timezone,
		Notes:             m.Notes,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
