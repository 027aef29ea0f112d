package store

import (
	"context"

	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

// maxSearchAttempts bounds threshold relaxation to a single extra try.
const maxSearchAttempts = 2

// RetryingRetriever relaxes the similarity threshold once when a search
// comes back empty: the second attempt runs with the relaxed threshold and
// a slightly larger limit. Implemented as a bounded loop so a
// misconfigured threshold can never recurse.
type RetryingRetriever struct {
	inner            Retriever
	relaxedThreshold float64
}

func NewRetryingRetriever(inner Retriever, relaxedThreshold float64) *RetryingRetriever {
	return &RetryingRetriever{inner: inner, relaxedThreshold: relaxedThreshold}
}

func (r *RetryingRetriever) Search(ctx context.Context, params SearchParams) ([]models.SimilarityMatch, error) {
	for attempt := 1; ; attempt++ {
		matches, err := r.inner.Search(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 || attempt >= maxSearchAttempts || params.Threshold <= r.relaxedThreshold {
			return matches, nil
		}

		log.Debug().Float64("threshold", params.Threshold).Float64("relaxed", r.relaxedThreshold).
			Msg("No matches, retrying with relaxed threshold")
		params.Threshold = r.relaxedThreshold
		params.Limit += 2
	}
}
