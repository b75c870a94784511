package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Silent(t *testing.T) {
	t.Parallel()
	tr := NewTracker(nil, "reports", 3)
	tr.Tick()
	tr.Finish()
	assert.Nil(t, tr.bar)
}

func TestTracker_Draws(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tr := NewTracker(&buf, "reports", 2)
	tr.Tick()
	tr.Tick()
	tr.Finish()
	assert.Contains(t, buf.String(), "reports")
}
