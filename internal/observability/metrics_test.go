package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLikeToggle(t *testing.T) {
	before := testutil.ToFloat64(LikeToggles.WithLabelValues(OutcomeLiked))
	RecordLikeToggle(OutcomeLiked, time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(LikeToggles.WithLabelValues(OutcomeLiked)))
}
