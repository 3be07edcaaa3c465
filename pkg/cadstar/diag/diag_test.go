package diag

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorOrdering(t *testing.T) {
	c := NewCollector()
	c.Report("body one", Warning, Body)
	c.Report("tail", Info, Tail)
	c.Report("head", Warning, Head)
	c.Report("body two", Error, Body)

	assert.Equal(t, 2, c.Count(Warning))
	assert.Equal(t, 1, c.Count(Error))
	require.Len(t, c.Filter(Info), 1)

	var msgs []string
	for _, d := range c.Ordered() {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{"head", "body one", "body two", "tail"}, msgs)
}

func TestMultiAndLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := NewCollector()

	Multi{c, LogReporter{Logger: logger}, Discard}.Report("symbol SYM1 rotated", Warning, Body)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "warning: symbol SYM1 rotated", c.Items[0].String())
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "placement=body")
}
