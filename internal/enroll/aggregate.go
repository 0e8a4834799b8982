package enroll

import "fmt"

// Mean returns the element-wise arithmetic mean of the embeddings.
// Sums are accumulated in float64 so three 512-d vectors average without
// float32 drift. The mean of a single embedding is a copy of it.
func Mean(embeddings [][]float32) ([]float32, error) {
	if len(embeddings) == 0 {
		return nil, ErrEmptyInput
	}

	dim := len(embeddings[0])
	sums := make([]float64, dim)
	for i, emb := range embeddings {
		if len(emb) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d values, expected %d", ErrDimensionMismatch, i, len(emb), dim)
		}
		for j, v := range emb {
			sums[j] += float64(v)
		}
	}

	n := float64(len(embeddings))
	mean := make([]float32, dim)
	for j, s := range sums {
		mean[j] = float32(s / n)
	}
	return mean, nil
}
