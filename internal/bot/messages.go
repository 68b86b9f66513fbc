package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tunebot/tunebot/internal/pipeline"
	"github.com/tunebot/tunebot/internal/storage"
)

const (
	msgWelcome = "Hi! Send me a YouTube link and I'll send back the audio as an MP3.\n\n" +
		"Commands:\n" +
		"/help — how it works\n" +
		"/stats — your usage\n" +
		"/history — your recent downloads"

	msgHelp = "Paste a YouTube video link (youtube.com or youtu.be) and I'll extract " +
		"the audio track, convert it to MP3 and send it back.\n\n" +
		"Videos longer than two hours or producing files over the Telegram upload " +
		"limit can't be delivered."

	msgProcessing     = "⏳ Working on it..."
	msgUploading      = "⬆️ Sending your audio..."
	msgUnknownCommand = "I don't know that command. Try /help."

	msgBlocked          = "Sorry, you can't use this bot."
	msgStatsUnavailable = "Stats are unavailable right now, try again later."
	msgDeliveryFailed   = "😔 The conversion worked but the upload failed. Please try again."
)

// MessageFor maps a terminal pipeline outcome to the user-facing reply.
func MessageFor(o pipeline.Outcome) string {
	switch o.Code {
	case pipeline.OutcomeTooLong:
		return "⏱ This video is too long. Please pick something under two hours."
	case pipeline.OutcomeTooLarge:
		return "📦 The audio for this video is too large to send over Telegram."
	case pipeline.OutcomeUnavailable:
		return "🚫 This video is unavailable. It may have been removed or region locked."
	case pipeline.OutcomeAgeRestricted:
		return "🔞 This video is age restricted and can't be downloaded."
	case pipeline.OutcomePrivate:
		return "🔒 This video is private."
	case pipeline.OutcomeFailed:
		if o.Reason == pipeline.ReasonInvalidURL {
			return "🤔 That doesn't look like a YouTube link. Send me a youtube.com or youtu.be URL."
		}

		return "😔 Something went wrong while processing your link. Please try again."
	default:
		return "😔 Something went wrong while processing your link. Please try again."
	}
}

// FormatUserStats renders the personal stats reply. A nil stats value
// means the store has never seen the user.
func FormatUserStats(stats *storage.UserStats) string {
	if stats == nil {
		return "No downloads yet. Send me a link to get started!"
	}

	return fmt.Sprintf(
		"📊 Your stats\nDownloads: %s\nMember since: %s\nLast active: %s",
		humanize.Comma(stats.Downloads),
		stats.RegisteredAt.Format("2 Jan 2006"),
		humanize.Time(stats.LastActiveAt),
	)
}

// FormatAdminStats renders the service-wide summary appended for
// administrators.
func FormatAdminStats(stats *storage.AdminStats) string {
	return fmt.Sprintf(
		"🛠 Service stats\nUsers: %s\nSuccessful downloads: %s\nActive in last 7 days: %s",
		humanize.Comma(stats.TotalUsers),
		humanize.Comma(stats.TotalDownloads),
		humanize.Comma(stats.ActiveUsers7d),
	)
}

// FormatHistory renders the recent download log, newest first.
func FormatHistory(records []storage.DownloadRecord) string {
	if len(records) == 0 {
		return "No downloads yet. Send me a link to get started!"
	}

	var sb strings.Builder

	sb.WriteString("🕘 Recent downloads\n")

	for _, rec := range records {
		marker := "✅"
		if !rec.Success {
			marker = "❌"
		}

		title := rec.Title
		if title == "" {
			title = rec.Reference
		}

		fmt.Fprintf(&sb, "%s %s", marker, title)

		if rec.Success && rec.FileSize > 0 {
			fmt.Fprintf(&sb, " (%s)", humanize.Bytes(uint64(rec.FileSize)))
		}

		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
