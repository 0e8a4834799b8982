// Package enroll turns a set of directional face photos into one reference
// embedding.
//
// A full submission (every required slot) is validated photo by photo and the
// accepted embeddings are averaged. A partial submission that still has the
// front photo falls back to the front embedding alone and is flagged as such.
// Without a front photo nothing is attempted.
package enroll

import (
	"context"
	"fmt"
)

// Result is a successful enrollment.
type Result struct {
	Vector     []float32
	IsFallback bool // true when only the front photo contributed
}

type mode int

const (
	modeReject mode = iota
	modeStrict
	modeFallback
)

func (m mode) String() string {
	switch m {
	case modeStrict:
		return "strict"
	case modeFallback:
		return "fallback"
	default:
		return "reject"
	}
}

// Pipeline runs enrollment over a fixed, ordered slot set.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	validator *Validator
	slots     []Slot
	front     int // 0-based position of the front slot
}

// NewPipeline creates a pipeline over slots. The slot set must contain SlotFront.
func NewPipeline(validator *Validator, slots []Slot) (*Pipeline, error) {
	idx := slotIndex(slots, SlotFront)
	if idx == 0 {
		return nil, fmt.Errorf("slot set has no %q slot", SlotFront)
	}
	return &Pipeline{
		validator: validator,
		slots:     slots,
		front:     idx - 1,
	}, nil
}

// decide picks the enrollment mode from which photos are present.
func (p *Pipeline) decide(sub Submission) mode {
	if !sub.Has(SlotFront) {
		return modeReject
	}
	for _, slot := range p.slots {
		if slot.Required && !sub.Has(slot.Name) {
			return modeFallback
		}
	}
	return modeStrict
}

// Enroll produces a Result or an error. Classified rejections are returned as
// *Failure; use errors.As to tell them apart from detector or internal errors.
func (p *Pipeline) Enroll(ctx context.Context, sub Submission) (*Result, error) {
	m := p.decide(sub)
	loggerFrom(ctx).Info("enrollment started", "mode", m.String())

	switch m {
	case modeStrict:
		return p.enrollStrict(ctx, sub)
	case modeFallback:
		return p.enrollFallback(ctx, sub)
	default:
		loggerFrom(ctx).Warn("front photo missing")
		return nil, missingFront()
	}
}

func (p *Pipeline) enrollStrict(ctx context.Context, sub Submission) (*Result, error) {
	embeddings := make([][]float32, 0, len(p.slots))
	for i, slot := range p.slots {
		emb, err := p.validator.Validate(ctx, i+1, slot, sub[slot.Name])
		if err != nil {
			return nil, err
		}
		if emb != nil {
			embeddings = append(embeddings, emb)
		}
	}

	vector, err := Mean(embeddings)
	if err != nil {
		return nil, fmt.Errorf("aggregate embeddings: %w", err)
	}
	loggerFrom(ctx).Info("enrollment complete", "photos", len(embeddings), "dim", len(vector))
	return &Result{Vector: vector}, nil
}

func (p *Pipeline) enrollFallback(ctx context.Context, sub Submission) (*Result, error) {
	slot := p.slots[p.front]
	emb, err := p.validator.Validate(ctx, p.front+1, slot, sub[slot.Name])
	if err != nil {
		return nil, err
	}
	loggerFrom(ctx).Info("enrollment complete from front photo only", "dim", len(emb))
	return &Result{Vector: emb, IsFallback: true}, nil
}
