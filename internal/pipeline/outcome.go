package pipeline

// Code identifies the single terminal result of a pipeline run. The set
// is closed; the front-end maps each code to one user-facing message.
type Code string

const (
	OutcomeSuccess       Code = "success"
	OutcomeTooLong       Code = "too_long"
	OutcomeTooLarge      Code = "too_large"
	OutcomeUnavailable   Code = "unavailable"
	OutcomeAgeRestricted Code = "age_restricted"
	OutcomePrivate       Code = "private"
	OutcomeFailed        Code = "failed"
)

// FailureReason narrows OutcomeFailed for logging and message
// selection.
type FailureReason string

const (
	ReasonInvalidURL     FailureReason = "invalid_url"
	ReasonNoStream       FailureReason = "no_stream"
	ReasonTranscodeError FailureReason = "transcode_error"
	ReasonTimeout        FailureReason = "timeout"
	ReasonInternal       FailureReason = "internal"
)

// Outcome is the tagged result of one pipeline run. FilePath is set
// only on success; the caller owns the file and deletes it after
// delivery. Err carries the underlying failure for logging only and is
// never shown to users.
type Outcome struct {
	Code     Code
	Reason   FailureReason
	FilePath string
	Title    string
	FileSize int64
	Err      error
}

func success(path, title string, size int64) Outcome {
	return Outcome{Code: OutcomeSuccess, FilePath: path, Title: title, FileSize: size}
}

func failed(reason FailureReason, err error) Outcome {
	return Outcome{Code: OutcomeFailed, Reason: reason, Err: err}
}
