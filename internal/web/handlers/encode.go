package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/enroll"
	"github.com/kozaktomas/face-enroll/internal/web/middleware"
)

// Enroller turns a photo submission into a reference vector.
type Enroller interface {
	Enroll(ctx context.Context, sub enroll.Submission) (*enroll.Result, error)
}

// EncodeHandler serves face enrollment.
type EncodeHandler struct {
	enroller Enroller
}

// NewEncodeHandler creates a new encode handler.
func NewEncodeHandler(enroller Enroller) *EncodeHandler {
	return &EncodeHandler{enroller: enroller}
}

// EncodeRequest carries base64 photos, optionally as data URLs.
type EncodeRequest struct {
	ImageFront string `json:"image_front"`
	ImageLeft  string `json:"image_left"`
	ImageRight string `json:"image_right"`
}

func (r EncodeRequest) submission() enroll.Submission {
	return enroll.Submission{
		enroll.SlotFront: r.ImageFront,
		enroll.SlotLeft:  r.ImageLeft,
		enroll.SlotRight: r.ImageRight,
	}
}

// EncodeResponse is the enrollment result or rejection.
type EncodeResponse struct {
	Success    bool      `json:"success"`
	Vector     []float32 `json:"vector,omitempty"`
	IsFallback *bool     `json:"isFallback,omitempty"`
	Message    string    `json:"message,omitempty"`
	ErrorCode  int       `json:"error_code,omitempty"`
	PhotoIndex int       `json:"photo_index,omitempty"`
	Score      *float64  `json:"score,omitempty"`
}

// Encode handles POST /api/encode.
func (h *EncodeHandler) Encode(w http.ResponseWriter, r *http.Request) {
	logger := middleware.LoggerFrom(r.Context())

	var req EncodeRequest
	if err := decodeJSONBody(w, r, constants.MaxEnrollBodySize, &req); err != nil {
		logger.Warn("invalid enrollment request", "error", sanitizeForLog(err.Error()))
		respondJSON(w, http.StatusBadRequest, EncodeResponse{
			Message:   errInvalidRequestBody,
			ErrorCode: http.StatusBadRequest,
		})
		return
	}

	ctx := enroll.WithLogger(r.Context(), logger)
	result, err := h.enroller.Enroll(ctx, req.submission())

	var failure *enroll.Failure
	switch {
	case errors.As(err, &failure):
		resp := EncodeResponse{
			Message:    failure.Message,
			ErrorCode:  failure.Code,
			PhotoIndex: failure.SlotIndex,
		}
		if failure.Code == enroll.CodeLowConfidence {
			score := failure.Score
			resp.Score = &score
		}
		respondJSON(w, http.StatusBadRequest, resp)
	case err != nil:
		logger.Error("enrollment failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, EncodeResponse{
			Message:   "internal server error",
			ErrorCode: http.StatusInternalServerError,
		})
	default:
		fallback := result.IsFallback
		respondJSON(w, http.StatusOK, EncodeResponse{
			Success:    true,
			Vector:     result.Vector,
			IsFallback: &fallback,
		})
	}
}
