package ais

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure. Every kind is recoverable at the
// sentence boundary: the caller reports it and moves on to the next line.
type ErrorKind string

const (
	KindNotAISSentence     ErrorKind = "not_ais_sentence"
	KindChecksumMismatch   ErrorKind = "checksum_mismatch"
	KindBadFieldCount      ErrorKind = "bad_field_count"
	KindBadTag             ErrorKind = "bad_tag"
	KindBadFragment        ErrorKind = "bad_fragment"
	KindBadFillBits        ErrorKind = "bad_fill_bits"
	KindEmptyPayload       ErrorKind = "empty_payload"
	KindBadArmorChar       ErrorKind = "bad_armor_char"
	KindMissingGroupID     ErrorKind = "missing_group_id"
	KindReassemblyTimeout  ErrorKind = "reassembly_timeout"
	KindUnsupportedMsgType ErrorKind = "unsupported_message_type"
	KindTruncatedPayload   ErrorKind = "truncated_payload"
	KindOutOfRange         ErrorKind = "out_of_range"
	KindPayloadTooLong     ErrorKind = "payload_too_long"
)

// DecodeError is the typed failure returned from every stage of the core.
// Kind doubles as the metric tag for the observer hook.
type DecodeError struct {
	Kind   ErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newError(kind ErrorKind, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or the empty string when err
// is not a DecodeError.
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
