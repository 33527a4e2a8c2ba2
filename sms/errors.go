package sms

import "errors"

var (
	// ErrTruncated is returned when a PDU ends before one of its fields.
	ErrTruncated = errors.New("pdu truncated")

	// ErrNotDeliver is returned for PDUs that are not SMS-DELIVER.
	ErrNotDeliver = errors.New("not an SMS-DELIVER pdu")

	// ErrBadHeaderLength is returned when the user data header claims
	// more than the user data length.
	ErrBadHeaderLength = errors.New("user data header longer than user data")

	// ErrOddHex is returned when the modem lists a PDU with an odd
	// number of hex digits.
	ErrOddHex = errors.New("odd length hex pdu")

	// ErrNoMessage is returned by DeleteFirstReceived when the
	// storage holds no received message.
	ErrNoMessage = errors.New("no received message")
)
