package enroll

import (
	"errors"
	"fmt"
)

// Failure codes returned to enrollment clients. The values are part of the
// public API (error_code in the JSON response) and must not change.
const (
	CodeMissingInput  = 401
	CodeDecodeFailed  = 402
	CodeLowConfidence = 403
	CodeMissingFront  = 404
)

var (
	// ErrEmptyInput is returned by Mean when called without embeddings.
	// The pipeline never does this; seeing it means a bug.
	ErrEmptyInput = errors.New("no embeddings to aggregate")

	// ErrDimensionMismatch is returned by Mean when embeddings differ in length.
	ErrDimensionMismatch = errors.New("embedding dimensions differ")

	// ErrEmptyEmbedding is returned when the detector reports a face without an embedding.
	ErrEmptyEmbedding = errors.New("detector returned an empty embedding")
)

// Failure is a classified enrollment rejection. It tells the caller which
// photo to retake and why.
type Failure struct {
	Code      int
	SlotIndex int     // 1-based, 0 when the failure is not tied to one photo
	Slot      string  // slot name, empty when SlotIndex is 0
	Score     float64 // observed detection score for CodeLowConfidence
	Message   string
}

func (f *Failure) Error() string {
	if f.SlotIndex > 0 {
		return fmt.Sprintf("enrollment failed (code %d, photo %d %s): %s", f.Code, f.SlotIndex, f.Slot, f.Message)
	}
	return fmt.Sprintf("enrollment failed (code %d): %s", f.Code, f.Message)
}

func missingInput(index int, slot Slot) *Failure {
	return &Failure{
		Code:      CodeMissingInput,
		SlotIndex: index,
		Slot:      slot.Name,
		Message:   fmt.Sprintf("photo %d (%s) is missing, please upload it again", index, slot.Name),
	}
}

func decodeFailed(index int, slot Slot) *Failure {
	return &Failure{
		Code:      CodeDecodeFailed,
		SlotIndex: index,
		Slot:      slot.Name,
		Message:   fmt.Sprintf("could not read photo %d (%s), please upload it again", index, slot.Name),
	}
}

func lowConfidence(index int, slot Slot, score float64) *Failure {
	return &Failure{
		Code:      CodeLowConfidence,
		SlotIndex: index,
		Slot:      slot.Name,
		Score:     score,
		Message:   fmt.Sprintf("no clear face detected in photo %d (%s), please upload it again", index, slot.Name),
	}
}

func missingFront() *Failure {
	return &Failure{
		Code:    CodeMissingFront,
		Message: "the front photo is required",
	}
}
