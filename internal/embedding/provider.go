// Package embedding provides text embedding providers for the duplicate
// detector. Providers never fail the caller: backends that error out fall
// back to a deterministic hashed bag-of-words projection of the same
// dimension.
package embedding

import "context"

// Provider converts text into a fixed-dimension vector. Implementations are
// deterministic for identical input within a provider instance's lifetime
// and map the empty string to the zero vector.
type Provider interface {
	// Embed returns the embedding for text. It never fails; on backend
	// error the result comes from a deterministic fallback of the same
	// dimension.
	Embed(ctx context.Context, text string) []float64

	// Dimension returns the fixed output dimension
	Dimension() int
}
