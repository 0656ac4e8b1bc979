package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"supplyguard/shared/types"
	"supplyguard/store"
)

// --- Equipment ---

func (s *Server) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	var (
		list []types.Equipment
		err  error
	)
	if country := r.URL.Query().Get("country"); country != "" {
		list, err = s.store.ListEquipmentByCountry(r.Context(), country)
	} else {
		list, err = s.store.ListEquipment(r.Context())
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	var eq types.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if eq.Name == "" {
		s.writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateEquipment(r.Context(), &eq); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, eq)
}

func (s *Server) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	eq, err := s.store.GetEquipment(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eq)
}

func (s *Server) handleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var eq types.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	eq.ID = id
	if err := s.store.UpdateEquipment(r.Context(), &eq); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eq)
}

func (s *Server) handleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteEquipment(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEquipmentRisks returns one equipment record with its persisted
// risk assessments. GET /api/v1/equipment/{id}/risks
func (s *Server) handleEquipmentRisks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	eq, err := s.store.GetEquipment(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	assessments, err := s.store.ListRiskAssessments(r.Context(), store.AssessmentFilter{EquipmentID: &id})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"equipment":        eq,
		"risk_assessments": assessments,
	})
}

// --- Schedules ---

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	var (
		list []types.Schedule
		err  error
	)
	if raw := r.URL.Query().Get("equipment_id"); raw != "" {
		equipmentID, convErr := strconv.Atoi(raw)
		if convErr != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid equipment_id")
			return
		}
		list, err = s.store.ListSchedulesByEquipment(r.Context(), equipmentID)
	} else {
		list, err = s.store.ListSchedules(r.Context())
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var sched types.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if sched.EquipmentID == 0 {
		s.writeError(w, r, http.StatusBadRequest, "equipment_id is required")
		return
	}
	if sched.Status == "" {
		sched.Status = types.SchedulePlanned
	}
	if sched.RiskLevel == "" {
		sched.RiskLevel = types.RiskLow
	}
	if err := s.store.CreateSchedule(r.Context(), &sched); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sched)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	sched, err := s.store.GetSchedule(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var sched types.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	sched.ID = id
	if err := s.store.UpdateSchedule(r.Context(), &sched); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteSchedule(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- News events ---

func (s *Server) handleListNewsEvents(w http.ResponseWriter, r *http.Request) {
	f := store.EventFilter{
		Category: types.EventCategory(r.URL.Query().Get("category")),
		Country:  r.URL.Query().Get("country"),
		Limit:    50,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = limit
	}

	list, err := s.store.ListNewsEvents(r.Context(), f)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateNewsEvent(w http.ResponseWriter, r *http.Request) {
	var e types.NewsEvent
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if e.Title == "" {
		s.writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.store.CreateNewsEvent(r.Context(), &e); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetNewsEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	e, err := s.store.GetNewsEvent(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateNewsEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var e types.NewsEvent
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = id
	if err := s.store.UpdateNewsEvent(r.Context(), &e); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteNewsEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteNewsEvent(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Risk assessments ---

func (s *Server) handleListRiskAssessments(w http.ResponseWriter, r *http.Request) {
	f := store.AssessmentFilter{
		RiskType: r.URL.Query().Get("risk_type"),
	}
	if raw := r.URL.Query().Get("equipment_id"); raw != "" {
		equipmentID, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid equipment_id")
			return
		}
		f.EquipmentID = &equipmentID
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = limit
	}

	list, err := s.store.ListRiskAssessments(r.Context(), f)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateRiskAssessment(w http.ResponseWriter, r *http.Request) {
	var a types.RiskAssessment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.RiskType == "" {
		s.writeError(w, r, http.StatusBadRequest, "risk_type is required")
		return
	}
	if err := s.store.CreateRiskAssessment(r.Context(), &a); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetRiskAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := s.store.GetRiskAssessment(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateRiskAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var a types.RiskAssessment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	a.ID = id
	if err := s.store.UpdateRiskAssessment(r.Context(), &a); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteRiskAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteRiskAssessment(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Dashboard ---

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
