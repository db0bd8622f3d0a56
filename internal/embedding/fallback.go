package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultDimension matches common sentence embedding models
	DefaultDimension = 384

	// vocabSize is the width of the intermediate term frequency vector
	vocabSize = 10000
)

var tokenPattern = regexp.MustCompile(`\w+`)

// HashedProvider is a deterministic fallback provider. It builds a term
// frequency vector over a large fixed vocabulary space, L2-normalizes it and
// projects it down to the output dimension via a position-hashed index
// mapping. Not a true semantic embedding, but stable and cheap.
type HashedProvider struct {
	dim        int
	projection []int
	logger     *zap.Logger
}

// NewHashedProvider creates a new hashed bag-of-words provider
func NewHashedProvider(dim int, logger *zap.Logger) *HashedProvider {
	if dim <= 0 {
		dim = DefaultDimension
	}

	// Fixed projection: each sparse slot maps to one output index, chosen by
	// hashing the slot position. Computed once so every call shares it.
	projection := make([]int, vocabSize)
	for i := range projection {
		h := fnv.New64a()
		h.Write([]byte(strconv.Itoa(i)))
		projection[i] = int(h.Sum64() % uint64(dim))
	}

	if logger != nil {
		logger.Debug("Initialized hashed embedding provider", zap.Int("dimension", dim))
	}

	return &HashedProvider{
		dim:        dim,
		projection: projection,
		logger:     logger,
	}
}

// Dimension returns the fixed output dimension
func (p *HashedProvider) Dimension() int {
	return p.dim
}

// Embed returns a deterministic pseudo-embedding for text
func (p *HashedProvider) Embed(_ context.Context, text string) []float64 {
	out := make([]float64, p.dim)
	if text == "" {
		return out
	}

	// Term frequencies over the fixed vocabulary space
	sparse := make([]float64, vocabSize)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sparse[h.Sum64()%vocabSize]++
	}

	normalize(sparse)

	// Project down to the output dimension
	for i, v := range sparse {
		if v != 0 {
			out[p.projection[i]] += v
		}
	}

	normalize(out)
	return out
}

// normalize scales v to unit L2 norm in place; zero vectors are left alone
func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
