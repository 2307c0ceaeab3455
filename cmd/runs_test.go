package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/recon-cli/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	runs := []model.Run{
		{Status: model.RunStatusComplete, CreatedAt: base, UpdatedAt: base.Add(30 * time.Second)},
		{Status: model.RunStatusComplete, CreatedAt: base, UpdatedAt: base.Add(90 * time.Second)},
		{Status: model.RunStatusFailed, CreatedAt: base, UpdatedAt: base.Add(5 * time.Second)},
		{Status: model.RunStatusResolving, CreatedAt: base, UpdatedAt: base},
	}

	s := computeRunStats(runs)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.InFlight)
	assert.InDelta(t, 60.0, s.AvgDurSecs, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}

func TestFormatRunsList(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	impact := decimal.RequireFromString("179.08")

	runs := []model.Run{
		{
			ID:          "a1b2c3d4-0000-0000-0000-000000000000",
			InvoicePath: "invoices/105924.pdf",
			Status:      model.RunStatusComplete,
			Result:      &model.RunResult{InvoiceNumber: "105924", ImpactSum: impact},
			CreatedAt:   base,
			UpdatedAt:   base.Add(45 * time.Second),
		},
		{
			ID:          "e5f6a7b8-0000-0000-0000-000000000000",
			InvoicePath: "invoices/very-long-path-that-should-be-truncated-for-display.pdf",
			Status:      model.RunStatusFailed,
			Result:      &model.RunResult{Error: "extract: malformed output"},
			CreatedAt:   base,
			UpdatedAt:   base.Add(2 * time.Second),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "a1b2c3d4")
	assert.Contains(t, out, "105924")
	assert.Contains(t, out, "179.08")
	assert.Contains(t, out, "failed")
	// Failed runs show no impact sum
	assert.NotContains(t, out, "0.00")
	// Long invoice paths are truncated
	assert.Contains(t, out, "...")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "a1b2c3d4", truncateID("a1b2c3d4-0000-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
