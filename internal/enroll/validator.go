package enroll

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// DetectedFace is one face found by the detector.
type DetectedFace struct {
	Confidence float64
	Embedding  []float32
}

// ImageCodec turns a transport-encoded photo into pixels.
// It reports false instead of returning an error when the input cannot be decoded.
type ImageCodec interface {
	Decode(encoded string) (image.Image, bool)
}

// FaceDetector finds faces in an image, best face first.
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]DetectedFace, error)
}

// Validator gates a single photo: present, decodable, and a confident face.
type Validator struct {
	codec         ImageCodec
	detector      FaceDetector
	minConfidence float64
}

// NewValidator creates a validator. Scores below minConfidence are rejected;
// a score equal to it is accepted.
func NewValidator(codec ImageCodec, detector FaceDetector, minConfidence float64) *Validator {
	return &Validator{
		codec:         codec,
		detector:      detector,
		minConfidence: minConfidence,
	}
}

// Validate checks the photo for slot, the index-th slot (1-based) of the submission.
// It returns the embedding of the detector's first face on success, a *Failure
// when the photo is rejected, or another error when the detector itself failed.
func (v *Validator) Validate(ctx context.Context, index int, slot Slot, raw string) ([]float32, error) {
	log := loggerFrom(ctx).With("slot", slot.Name, "photo", index)

	if raw == "" {
		if slot.Required {
			log.Warn("photo missing")
			return nil, missingInput(index, slot)
		}
		return nil, nil
	}

	img, ok := v.codec.Decode(raw)
	if !ok {
		log.Warn("photo could not be decoded")
		return nil, decodeFailed(index, slot)
	}
	b := img.Bounds()
	log.Info("photo decoded", "width", b.Dx(), "height", b.Dy())

	faces, err := v.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect faces in %s photo: %w", slot.Name, err)
	}

	// The detector ranks faces itself; index 0 is the primary face.
	if len(faces) == 0 {
		log.Warn("no face detected", "score", 0.0)
		return nil, lowConfidence(index, slot, 0)
	}
	if score := faces[0].Confidence; score < v.minConfidence {
		log.Warn("face detection score below threshold", "score", score, "threshold", v.minConfidence)
		return nil, lowConfidence(index, slot, score)
	}

	if len(faces[0].Embedding) == 0 {
		log.Error("face detected without embedding", "score", faces[0].Confidence)
		return nil, fmt.Errorf("%s photo: %w", slot.Name, ErrEmptyEmbedding)
	}

	log.Info("photo accepted", "score", faces[0].Confidence, "dim", len(faces[0].Embedding))
	return faces[0].Embedding, nil
}

type loggerKey struct{}

// WithLogger attaches a request-scoped logger used by the pipeline.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
