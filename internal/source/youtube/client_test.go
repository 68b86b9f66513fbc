package youtube

import (
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunebot/tunebot/internal/source"
)

func audioFormat(mime string, avgBitrate int) youtube.Format {
	return youtube.Format{MimeType: mime, AverageBitrate: avgBitrate}
}

func TestSelectAudioFormat_PrefersMP4Container(t *testing.T) {
	formats := []youtube.Format{
		audioFormat(`audio/webm; codecs="opus"`, 160000),
		audioFormat(`audio/mp4; codecs="mp4a.40.2"`, 128000),
		audioFormat(`video/mp4; codecs="avc1"`, 2000000),
	}

	got, err := selectAudioFormat(formats)
	require.NoError(t, err)
	assert.Contains(t, got.MimeType, "audio/mp4")
}

func TestSelectAudioFormat_FallsBackToBestBitrate(t *testing.T) {
	formats := []youtube.Format{
		audioFormat(`audio/webm; codecs="opus"`, 70000),
		audioFormat(`audio/webm; codecs="opus"`, 160000),
		audioFormat(`audio/webm; codecs="vorbis"`, 128000),
	}

	got, err := selectAudioFormat(formats)
	require.NoError(t, err)
	assert.Equal(t, 160000, got.AverageBitrate)
}

func TestSelectAudioFormat_IgnoresVideoOnlyFormats(t *testing.T) {
	formats := []youtube.Format{
		audioFormat(`video/mp4; codecs="avc1"`, 2000000),
		audioFormat(`video/webm; codecs="vp9"`, 1500000),
	}

	_, err := selectAudioFormat(formats)
	assert.ErrorIs(t, err, source.ErrNoStream)
}

func TestSelectAudioFormat_NoFormatsAtAll(t *testing.T) {
	_, err := selectAudioFormat(nil)
	assert.ErrorIs(t, err, source.ErrNoStream)
}

func TestExtensionFor(t *testing.T) {
	m4a := audioFormat(`audio/mp4; codecs="mp4a.40.2"`, 128000)
	webm := audioFormat(`audio/webm; codecs="opus"`, 160000)

	assert.Equal(t, ".m4a", extensionFor(&m4a))
	assert.Equal(t, ".webm", extensionFor(&webm))
}
