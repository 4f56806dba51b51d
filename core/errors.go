package core

// API error codes returned in the structured error body. These are part of the
// wire contract and consumed by clients, so they must remain stable.
const (
	CodeInvalidAudio          = "INVALID_AUDIO"
	CodeInvalidTimezone       = "INVALID_TIMEZONE"
	CodeInvalidCurrentTime    = "INVALID_CURRENT_TIME"
	CodeTranscriptionFailed   = "TRANSCRIPTION_FAILED"
	CodeEmptyTranscript       = "EMPTY_TRANSCRIPT"
	CodeEventExtractionFailed = "EVENT_EXTRACTION_FAILED"
	CodeInternalError         = "INTERNAL_ERROR"
)

// MaxErrorDetailLength caps the details field of error responses so upstream
// error bodies cannot balloon the response.
const MaxErrorDetailLength = 500
