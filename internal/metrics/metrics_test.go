package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsCount(t *testing.T) {
	Init()
	Init() // idempotent

	before := testutil.ToFloat64(upstreamRequests.WithLabelValues(OpFetch, ResultError))
	ObserveUpstream(OpFetch, errors.New("boom"), 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues(OpFetch, ResultError)))

	before = testutil.ToFloat64(formOutcomes.WithLabelValues(OpUpdate, ResultSuccess))
	ObserveFormOutcome(OpUpdate, false)
	assert.Equal(t, before+1, testutil.ToFloat64(formOutcomes.WithLabelValues(OpUpdate, ResultSuccess)))

	before = testutil.ToFloat64(staleResponses.WithLabelValues(OpFetch))
	IncStale(OpFetch)
	assert.Equal(t, before+1, testutil.ToFloat64(staleResponses.WithLabelValues(OpFetch)))

	SetSessions(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(formSessions))

	before = testutil.ToFloat64(eventsPublished.WithLabelValues(ResultSuccess))
	ObservePublish(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(eventsPublished.WithLabelValues(ResultSuccess)))
}
