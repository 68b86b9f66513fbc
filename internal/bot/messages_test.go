package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tunebot/tunebot/internal/pipeline"
	"github.com/tunebot/tunebot/internal/storage"
)

func TestMessageFor(t *testing.T) {
	tests := []struct {
		name    string
		outcome pipeline.Outcome
		want    string
	}{
		{
			name:    "too long",
			outcome: pipeline.Outcome{Code: pipeline.OutcomeTooLong},
			want:    "too long",
		},
		{
			name:    "too large",
			outcome: pipeline.Outcome{Code: pipeline.OutcomeTooLarge},
			want:    "too large",
		},
		{
			name:    "unavailable",
			outcome: pipeline.Outcome{Code: pipeline.OutcomeUnavailable},
			want:    "unavailable",
		},
		{
			name:    "age restricted",
			outcome: pipeline.Outcome{Code: pipeline.OutcomeAgeRestricted},
			want:    "age restricted",
		},
		{
			name:    "private",
			outcome: pipeline.Outcome{Code: pipeline.OutcomePrivate},
			want:    "private",
		},
		{
			name:    "invalid url",
			outcome: pipeline.Outcome{Code: pipeline.OutcomeFailed, Reason: pipeline.ReasonInvalidURL},
			want:    "doesn't look like a YouTube link",
		},
		{
			name:    "generic failure",
			outcome: pipeline.Outcome{Code: pipeline.OutcomeFailed, Reason: pipeline.ReasonTranscodeError},
			want:    "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, MessageFor(tt.outcome), tt.want)
		})
	}
}

func TestFormatUserStats(t *testing.T) {
	assert.Contains(t, FormatUserStats(nil), "No downloads yet")

	stats := &storage.UserStats{
		Downloads:    1234,
		RegisteredAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		LastActiveAt: time.Now(),
	}

	got := FormatUserStats(stats)
	assert.Contains(t, got, "1,234")
	assert.Contains(t, got, "14 Mar 2025")
}

func TestFormatAdminStats(t *testing.T) {
	got := FormatAdminStats(&storage.AdminStats{
		TotalUsers:     10,
		TotalDownloads: 2500,
		ActiveUsers7d:  3,
	})

	assert.Contains(t, got, "Users: 10")
	assert.Contains(t, got, "2,500")
	assert.Contains(t, got, "last 7 days: 3")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory(nil), "No downloads yet")

	records := []storage.DownloadRecord{
		{Title: "First Song", Success: true, FileSize: 3 * 1000 * 1000},
		{Reference: "https://youtu.be/abcdefghijk", Success: false},
	}

	got := FormatHistory(records)
	assert.Contains(t, got, "✅ First Song (3.0 MB)")
	assert.Contains(t, got, "❌ https://youtu.be/abcdefghijk")
}
