// Package embedder implements C4: multi-provider embedding with a
// deterministic synthetic fallback, provider health tracking, result
// caching, and sector-weighted fusion.
package embedder

import (
	"context"

	"github.com/openmemory/openmemory/internal/model"
)

// Provider produces embeddings for a single sector or a batch of sectors.
// Implementations must never block past their own internal timeout/retry
// budget; the router is responsible for the fallback chain.
type Provider interface {
	Name() string
	EmbedForSector(ctx context.Context, text string, sector model.Sector) ([]float32, error)
	EmbedBatch(ctx context.Context, text string, sectors []model.Sector) (map[model.Sector][]float32, error)
}

// SectorResult pairs a sector with its embedding, for batch call sites.
type SectorResult struct {
	Sector model.Sector
	Vector []float32
}

// resizeToDim truncates or zero-pads v to exactly dim entries, per the
// embed_for_sector contract's "guarantees a returned vector of length
// vec_dim" requirement.
func resizeToDim(v []float32, dim int) []float32 {
	if len(v) == dim {
		return v
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}
