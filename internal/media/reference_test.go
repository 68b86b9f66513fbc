package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RecognizedShapes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{
			name:   "standard watch URL",
			input:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "bare host",
			input:  "https://youtube.com/watch?v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "mobile host",
			input:  "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "no scheme",
			input:  "www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "short link",
			input:  "https://youtu.be/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "short link with tracking",
			input:  "https://youtu.be/dQw4w9WgXcQ?si=AbCdEf",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "embed path",
			input:  "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "v path",
			input:  "https://www.youtube.com/v/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "nocookie host",
			input:  "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "identifier after other query params",
			input:  "https://www.youtube.com/watch?feature=shared&v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "surrounding whitespace",
			input:  "  https://www.youtube.com/watch?v=dQw4w9WgXcQ \n",
			wantID: "dQw4w9WgXcQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ref.ID)
			assert.Equal(t, "https://www.youtube.com/watch?v="+tt.wantID, ref.URL)
		})
	}
}

func TestParse_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "plain text", input: "hello there"},
		{name: "unrelated URL", input: "https://example.com/watch?v=dQw4w9WgXcQ"},
		{name: "vimeo", input: "https://vimeo.com/123456789"},
		{name: "identifier too short", input: "https://www.youtube.com/watch?v=shortid"},
		{name: "identifier too long", input: "https://youtu.be/dQw4w9WgXcQx"},
		{name: "channel page", input: "https://www.youtube.com/@somechannel"},
		{name: "playlist only", input: "https://www.youtube.com/playlist?list=PL123"},
		{name: "host embedded in path", input: "https://evil.test/https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, ErrUnrecognizedLink)
		})
	}
}

// Links differing only by tracking or playlist parameters must collapse
// to the identical canonical reference.
func TestParse_NormalizesTrackingParameters(t *testing.T) {
	variants := []string{
		"https://www.youtube.com/watch?v=abcdefghijk",
		"https://www.youtube.com/watch?v=abcdefghijk&list=PL123",
		"https://www.youtube.com/watch?v=abcdefghijk&start_radio=1",
		"https://www.youtube.com/watch?v=abcdefghijk&t=42s&feature=shared",
		"https://youtu.be/abcdefghijk?list=PL123",
		"m.youtube.com/watch?v=abcdefghijk#fragment",
	}

	for _, v := range variants {
		ref, err := Parse(v)
		require.NoError(t, err, "input %q", v)
		assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", ref.URL, "input %q", v)
	}
}
