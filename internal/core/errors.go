package core

import "errors"

// User-visible messages. These are surfaced verbatim by the web layer, one
// at a time; the latest overwrites any previous one.
const (
	MsgNoFile            = "Please upload a file."
	MsgUnsupportedFormat = "Unsupported file format. Please upload Excel (.xlsx, .xls) or CSV (.csv) files."
	MsgMissingThreshold  = "Please enter a minimum age value."
	MsgNoResults         = "No results found for the given age filter."
	MsgUnreadableFile    = "Unable to read the uploaded file."
)

// Sentinel errors for the recoverable conditions of the pipeline. All of
// them leave the session usable; the user can always retry the action.
var (
	ErrNoFile            = errors.New("no file uploaded")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingThreshold  = errors.New("missing or invalid minimum age")
	ErrNothingToExport   = errors.New("no filtered records to export")
	ErrStaleUpload       = errors.New("upload superseded by a newer one")
	ErrSessionNotFound   = errors.New("session not found")
)

// UserMessage maps a pipeline error to the message shown to the user.
// Unknown errors fall back to the unreadable-file message since the only
// unclassified failures are parse failures of the uploaded bytes.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return MsgNoFile
	case errors.Is(err, ErrUnsupportedFormat):
		return MsgUnsupportedFormat
	case errors.Is(err, ErrMissingThreshold):
		return MsgMissingThreshold
	default:
		return MsgUnreadableFile
	}
}
