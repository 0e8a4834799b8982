package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-enroll/internal/database"
	"github.com/kozaktomas/face-enroll/internal/web/middleware"
)

const maxStudentBodySize = 1 << 20

// StudentsHandler serves the identity store API.
type StudentsHandler struct {
	store database.IdentityWriter
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(store database.IdentityWriter) *StudentsHandler {
	return &StudentsHandler{store: store}
}

// VectorFaceInfo summarizes a stored vector without exposing it.
type VectorFaceInfo struct {
	HasVector  bool `json:"has_vector"`
	VectorSize int  `json:"vector_size,omitempty"`
}

// StudentSummary is a search result row.
type StudentSummary struct {
	ID             int64          `json:"id"`
	FullName       string         `json:"full_name"`
	CodeStudent    string         `json:"code_student"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address"`
	Email          string         `json:"email"`
	Status         string         `json:"status"`
	CreatedAt      int64          `json:"created_at"`
	VectorFaceInfo VectorFaceInfo `json:"vector_face_info"`
}

// StudentRecord is a list row. vector_face is null when no face is enrolled.
type StudentRecord struct {
	ID          int64               `json:"id"`
	FullName    string              `json:"full_name"`
	CodeStudent string              `json:"code_student"`
	Phone       string              `json:"phone"`
	Address     string              `json:"address"`
	Email       string              `json:"email"`
	Status      string              `json:"status"`
	CreatedAt   int64               `json:"created_at"`
	VectorFace  database.WireVector `json:"vector_face"`
}

// StudentVector is the body of get-vector.
type StudentVector struct {
	ID         int64               `json:"id"`
	FullName   string              `json:"full_name"`
	VectorFace database.WireVector `json:"vector_face"`
}

// ListResponse wraps a list of rows.
type ListResponse[T any] struct {
	Success bool `json:"success"`
	Data    []T  `json:"data"`
	Count   int  `json:"count"`
}

// MessageResponse is a plain success body.
type MessageResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ID          int64  `json:"id,omitempty"`
	UpdatedRows *int64 `json:"updated_rows,omitempty"`
}

// UpdateVectorRequest is the body of update-vector. A null vector clears it.
type UpdateVectorRequest struct {
	ID         int64               `json:"id"`
	VectorFace database.WireVector `json:"vector_face"`
}

// CreateStudentRequest is the body of create.
type CreateStudentRequest struct {
	FullName    string              `json:"full_name"`
	CodeStudent string              `json:"code_student"`
	Phone       string              `json:"phone"`
	Address     string              `json:"address"`
	Email       string              `json:"email"`
	VectorFace  database.WireVector `json:"vector_face"`
}

func toSummary(ident database.Identity) StudentSummary {
	return StudentSummary{
		ID:          ident.ID,
		FullName:    ident.FullName,
		CodeStudent: ident.CodeStudent,
		Phone:       ident.Phone,
		Address:     ident.Address,
		Email:       ident.Email,
		Status:      ident.Status,
		CreatedAt:   ident.CreatedAt,
		VectorFaceInfo: VectorFaceInfo{
			HasVector:  ident.HasVector(),
			VectorSize: len(ident.VectorFace),
		},
	}
}

func toRecord(ident database.Identity) StudentRecord {
	return StudentRecord{
		ID:          ident.ID,
		FullName:    ident.FullName,
		CodeStudent: ident.CodeStudent,
		Phone:       ident.Phone,
		Address:     ident.Address,
		Email:       ident.Email,
		Status:      ident.Status,
		CreatedAt:   ident.CreatedAt,
		VectorFace:  database.WireVector(ident.VectorFace),
	}
}

// Search handles GET /api/student/search?name=|id=. id wins when both are given.
func (h *StudentsHandler) Search(w http.ResponseWriter, r *http.Request) {
	logger := middleware.LoggerFrom(r.Context())
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	idParam := strings.TrimSpace(r.URL.Query().Get("id"))

	if name == "" && idParam == "" {
		respondError(w, http.StatusBadRequest, "name or id is required")
		return
	}

	var found []database.Identity
	if idParam != "" {
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		ident, err := h.store.Get(r.Context(), id)
		if err != nil {
			logger.Error("search by id failed", "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, errDatabase)
			return
		}
		if ident != nil {
			found = append(found, *ident)
		}
	} else {
		var err error
		found, err = h.store.SearchByName(r.Context(), name)
		if err != nil {
			logger.Error("search by name failed", "name", sanitizeForLog(name), "error", err)
			respondError(w, http.StatusInternalServerError, errDatabase)
			return
		}
	}

	data := make([]StudentSummary, 0, len(found))
	for _, ident := range found {
		data = append(data, toSummary(ident))
	}
	respondJSON(w, http.StatusOK, ListResponse[StudentSummary]{Success: true, Data: data, Count: len(data)})
}

// UpdateVector handles POST /api/student/update-vector.
func (h *StudentsHandler) UpdateVector(w http.ResponseWriter, r *http.Request) {
	logger := middleware.LoggerFrom(r.Context())

	var req UpdateVectorRequest
	if err := decodeJSONBody(w, r, maxStudentBodySize, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ID == 0 {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	existing, err := h.store.Get(r.Context(), req.ID)
	if err != nil {
		logger.Error("lookup before vector update failed", "id", req.ID, "error", err)
		respondError(w, http.StatusInternalServerError, errDatabase)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	n, err := h.store.UpdateVector(r.Context(), req.ID, []float32(req.VectorFace))
	if err != nil {
		logger.Error("vector update failed", "id", req.ID, "error", err)
		respondError(w, http.StatusInternalServerError, errDatabase)
		return
	}

	logger.Info("vector updated", "id", req.ID, "dim", len(req.VectorFace))
	respondJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "vector updated", UpdatedRows: &n})
}

// Create handles POST /api/student/create.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := middleware.LoggerFrom(r.Context())

	var req CreateStudentRequest
	if err := decodeJSONBody(w, r, maxStudentBodySize, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		respondError(w, http.StatusBadRequest, "full_name is required")
		return
	}

	id, err := h.store.Create(r.Context(), &database.Identity{
		FullName:    fullName,
		CodeStudent: req.CodeStudent,
		Phone:       req.Phone,
		Address:     req.Address,
		Email:       req.Email,
		Status:      database.StatusActive,
		VectorFace:  []float32(req.VectorFace),
	})
	if err != nil {
		logger.Error("create student failed", "error", err)
		respondError(w, http.StatusInternalServerError, errDatabase)
		return
	}

	logger.Info("student created", "id", id)
	respondJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "student created", ID: id})
}

// GetVector handles GET /api/student/get-vector/{id}.
func (h *StudentsHandler) GetVector(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ident, err := h.store.Get(r.Context(), id)
	if err != nil {
		middleware.LoggerFrom(r.Context()).Error("get vector failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, errDatabase)
		return
	}
	if ident == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Data    StudentVector `json:"data"`
	}{
		Success: true,
		Data:    StudentVector{ID: ident.ID, FullName: ident.FullName, VectorFace: database.WireVector(ident.VectorFace)},
	})
}

// List handles GET /api/student/list. This is the payload the cache sync consumes.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.List(r.Context())
	if err != nil {
		middleware.LoggerFrom(r.Context()).Error("list students failed", "error", err)
		respondError(w, http.StatusInternalServerError, errDatabase)
		return
	}

	data := make([]StudentRecord, 0, len(all))
	for _, ident := range all {
		data = append(data, toRecord(ident))
	}
	respondJSON(w, http.StatusOK, ListResponse[StudentRecord]{Success: true, Data: data, Count: len(data)})
}
