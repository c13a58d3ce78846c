package provider

import "github.com/embedmux/embedmux/pkg/types"

// Partition is one slice of a mixed-modality batch. Positions records where
// each of the sub-request's inputs sat in the original input list, so results
// can be stitched back in original order.
type Partition struct {
	Request   *types.EmbeddingRequest
	Positions []int
}

// Partitioner is implemented by providers that split one request into
// per-modality sub-requests. Each partition is executed independently and
// the vectors are reassembled by position, so output order always matches
// input order regardless of how the batch was split.
type Partitioner interface {
	Partition(req *types.EmbeddingRequest) ([]Partition, error)
}
