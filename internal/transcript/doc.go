// Package transcript parses session transcript files and extracts plain text
// from heterogeneous message shapes.
//
// Transcripts are JSON Lines files: one structured message per line. Lines
// that fail to parse are skipped individually so that partial or truncated
// transcripts never abort an archive run.
//
// # Message Shapes
//
// Two line shapes are accepted. A flat message:
//
//	{"role": "assistant", "content": "We fixed the race condition."}
//
// and a wrapped message as written by session hooks:
//
//	{"type": "assistant", "message": {"role": "assistant", "content": [...]},
//	 "timestamp": "2026-08-01T10:00:00Z"}
//
// The content field may be a plain string or a sequence of typed parts; only
// parts carrying a "text" attribute contribute to extraction.
//
// # Extraction
//
// ExtractText is a pure function of its input message:
//
//	text := transcript.ExtractText(msg)
//	if text == "" {
//	    // nothing extractable; caller discards the message
//	}
package transcript
