package rama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikz/iris/library"
	"github.com/tikz/iris/metric"
)

func TestCategory(t *testing.T) {
	assert.Equal(t, library.Glycine, Category("GLY", "PRO"))
	assert.Equal(t, library.Proline, Category("pro", ""))
	assert.Equal(t, library.PreProline, Category("ALA", "PRO"))
	assert.Equal(t, library.General, Category("ALA", "GLY"))
	assert.Equal(t, library.General, Category("ALA", ""))
}

func TestScoreAndClassify(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		category string
		phi, psi float64
		want     metric.Indicator
	}{
		{library.General, -60, -45, metric.Favoured},
		{library.General, -140, 135, metric.Favoured},
		{library.General, 60, -120, metric.Outlier},
		{library.Glycine, 80, 0, metric.Allowed},
		{library.PreProline, -65, 140, metric.Favoured},
	}
	for _, tt := range tests {
		s := c.Score(tt.category, metric.Float(tt.phi), metric.Float(tt.psi))
		require.True(t, s.Valid)
		assert.Equal(t, tt.want, Classify(s), "%s (%f, %f) scored %f", tt.category, tt.phi, tt.psi, s.Float64)
	}

	assert.False(t, c.Score(library.General, metric.NullFloat64{}, metric.Float(-45)).Valid)
	assert.False(t, c.Score("unknown", metric.Float(-60), metric.Float(-45)).Valid)
}

func TestClassifyThresholds(t *testing.T) {
	assert.Equal(t, metric.Unknown, Classify(metric.NullFloat64{}))
	assert.Equal(t, metric.Favoured, Classify(metric.Float(0.02)))
	assert.Equal(t, metric.Allowed, Classify(metric.Float(0.0199)))
	assert.Equal(t, metric.Allowed, Classify(metric.Float(0.002)))
	assert.Equal(t, metric.Outlier, Classify(metric.Float(0.0019)))
}
