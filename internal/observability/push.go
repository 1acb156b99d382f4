package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name one-shot runs push under.
const PushJob = "movie_ratings_etl"

// Push sends the current metric values to a Pushgateway, replacing the
// previous values of the job.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	if gatewayURL == "" {
		return fmt.Errorf("pushgateway: url is required")
	}
	if err := push.New(gatewayURL, PushJob).Gatherer(m.Gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("pushgateway: %w", err)
	}
	return nil
}
