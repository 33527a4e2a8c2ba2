package sms

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
	"time"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestUnpack7(t *testing.T) {
	tests := map[string]struct {
		input []byte
		n     int
		want  []byte
	}{
		"first septet is the low bits": {
			input: []byte{0xc1},
			n:     1,
			want:  []byte{0x41},
		},
		"two septets across a byte boundary": {
			input: []byte{0x41, 0x21},
			n:     2,
			want:  []byte{0x41, 0x42},
		},
		"full group of eight in seven bytes": {
			input: []byte{0x41, 0xe1, 0x90, 0x58, 0x34, 0x1e, 0x91},
			n:     8,
			want:  []byte("ABCDEFGH"),
		},
		"ninth septet starts a new group": {
			input: []byte{0x41, 0xe1, 0x90, 0x58, 0x34, 0x1e, 0x91, 0x49},
			n:     9,
			want:  []byte("ABCDEFGHI"),
		},
		"How are you?": {
			input: []byte{0xc8, 0xf7, 0x1d, 0x14, 0x96, 0x97, 0x41, 0xf9, 0x77, 0xfd, 0x07},
			n:     12,
			want:  []byte("How are you?"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Unpack7(tc.input, tc.n)
			if err != nil {
				t.Fatal("Got error while not expecting one:", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf(`Got %q, wanted %q`, got, tc.want)
			}
		})
	}
}

func TestUnpack7Arithmetic(t *testing.T) {
	b := []byte{0xa5, 0x5a, 0xc3, 0x3c, 0x96, 0x69, 0xf0, 0x0f}

	got, err := Unpack7(b, 9)
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if got[0] != b[0]&0x7f {
		t.Fatalf(`index 0: Got %#x, wanted %#x`, got[0], b[0]&0x7f)
	}
	window := int(b[1])<<8 | int(b[0])
	if want := byte(window << 1 >> 8 & 0x7f); got[1] != want {
		t.Fatalf(`index 1: Got %#x, wanted %#x`, got[1], want)
	}
	// index 7 closes the first group: offset 7, shift 7, all bits from byte 6
	if want := b[6] >> 1; got[7] != want {
		t.Fatalf(`index 7: Got %#x, wanted %#x`, got[7], want)
	}
	// index 8 opens the next group: offset 7, shift 0
	if want := b[7] & 0x7f; got[8] != want {
		t.Fatalf(`index 8: Got %#x, wanted %#x`, got[8], want)
	}
}

func TestUnpack7Truncated(t *testing.T) {
	tests := map[string]struct {
		input []byte
		n     int
	}{
		"empty":            {input: nil, n: 1},
		"second septet":    {input: []byte{0x41}, n: 2},
		"ninth septet":     {input: []byte{0x41, 0xe1, 0x90, 0x58, 0x34, 0x1e, 0x91}, n: 9},
		"claimed too much": {input: []byte{0xc8, 0xf7, 0x1d}, n: 12},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Unpack7(tc.input, tc.n); !errors.Is(err, ErrTruncated) {
				t.Fatalf(`Got %v, wanted %v`, err, ErrTruncated)
			}
		})
	}
}

func TestEncodeDeliverUserData(t *testing.T) {
	pdu, err := EncodeDeliver(Deliver{
		Originator: "+31641600986",
		Text:       "How are you?",
		Timestamp:  time.Date(2002, time.August, 26, 19, 37, 41, 0, time.UTC),
	})
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	want := mustHex(t, "0CC8F71D14969741F977FD07")
	if !bytes.HasSuffix(pdu, want) {
		t.Fatalf(`Got %X, wanted suffix %X`, pdu, want)
	}
}

func TestDecodeAddress(t *testing.T) {
	tests := map[string]struct {
		input []byte
		want  string
		err   error
	}{
		"four digits": {
			input: []byte{4, 0x81, 0x21, 0x43},
			want:  "1234",
		},
		"odd digit count with filler": {
			input: []byte{11, 0x91, 0x13, 0x46, 0x61, 0x00, 0x89, 0xf6},
			want:  "31641600986",
		},
		"empty": {
			input: []byte{0, 0x81},
			want:  "",
		},
		"missing digits": {
			input: []byte{4, 0x81, 0x21},
			err:   ErrTruncated,
		},
		"missing type": {
			input: []byte{4},
			err:   ErrTruncated,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeAddress(tc.input)
			if !errors.Is(err, tc.err) {
				t.Fatalf(`Got %v, wanted %v`, err, tc.err)
			}
			if got != tc.want {
				t.Fatalf(`Got "%s", wanted "%s"`, got, tc.want)
			}
		})
	}
}

func TestDecodeDeliver(t *testing.T) {
	pdu := mustHex(t, "07911326040000F0040B911346610089F60000208062917314080CC8F71D14969741F977FD07")

	d, err := DecodeDeliver(pdu)
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if d.Originator != "31641600986" {
		t.Fatalf(`Got "%s", wanted "%s"`, d.Originator, "31641600986")
	}
	if d.AddressType != 0x91 {
		t.Fatalf(`Got %#x, wanted %#x`, d.AddressType, 0x91)
	}
	if d.Text != "How are you?" {
		t.Fatalf(`Got "%s", wanted "%s"`, d.Text, "How are you?")
	}
	if got := d.Timestamp.Format("06/01/02 15:04:05"); got != "02/08/26 19:37:41" {
		t.Fatalf(`Got "%s", wanted "%s"`, got, "02/08/26 19:37:41")
	}
}

func TestDecodeDeliverUCS2(t *testing.T) {
	// DCS 0x08, user data "Hi" as UCS2
	pdu := mustHex(t, "0004048121430008208062917314080400480069")

	d, err := DecodeDeliver(pdu)
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if d.Text != "Hi" {
		t.Fatalf(`Got "%s", wanted "%s"`, d.Text, "Hi")
	}
}

func TestDecodeDeliverErrors(t *testing.T) {
	full := "07911326040000F0040B911346610089F60000208062917314080CC8F71D14969741F977FD07"
	tests := map[string]struct {
		input string
		err   error
	}{
		"empty":              {input: "", err: ErrTruncated},
		"SMSC runs past end": {input: "0791132604", err: ErrTruncated},
		"SMS-SUBMIT":         {input: "0001000B911346610089F60000", err: ErrNotDeliver},
		"SMS-STATUS-REPORT":  {input: "0006", err: ErrNotDeliver},
		"cut in address":     {input: full[:24], err: ErrTruncated},
		"cut in timestamp":   {input: full[:50], err: ErrTruncated},
		"cut in user data":   {input: full[:len(full)-4], err: ErrTruncated},
		"header longer than data": {
			input: "0044048121430000208062917314080203050003",
			err:   ErrBadHeaderLength,
		},
		"header runs past end": {
			input: "004404812143000020806291731408100A0500",
			err:   ErrTruncated,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDeliver(mustHex(t, tc.input))
			if !errors.Is(err, tc.err) {
				t.Fatalf(`Got %v, wanted %v`, err, tc.err)
			}
		})
	}
}

func TestDeliverRoundTrip(t *testing.T) {
	tests := map[string]Deliver{
		"plain": {
			Originator: "09012345678",
			Text:       "Hello from WioLTE",
		},
		"international": {
			Originator: "+819012345678",
			Text:       "Hello",
		},
		"with header": {
			Originator: "1234",
			Header:     []byte{0x00, 0x03, 0x2a, 0x02, 0x01},
			Text:       "part one of two",
		},
		"with timestamp": {
			Originator: "5551234",
			Timestamp:  time.Date(2021, time.March, 4, 5, 6, 7, 0, time.FixedZone("", 9*60*60)),
			Text:       "time",
		},
		"empty text": {
			Originator: "1",
		},
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			pdu, err := EncodeDeliver(in)
			if err != nil {
				t.Fatal("Got error while not expecting one:", err)
			}
			out, err := DecodeDeliver(pdu)
			if err != nil {
				t.Fatal("Got error while not expecting one:", err)
			}
			wantNumber := in.Originator
			if wantNumber[0] == '+' {
				wantNumber = wantNumber[1:]
			}
			if out.Originator != wantNumber {
				t.Fatalf(`Got "%s", wanted "%s"`, out.Originator, wantNumber)
			}
			if out.Text != in.Text {
				t.Fatalf(`Got "%s", wanted "%s"`, out.Text, in.Text)
			}
			if !bytes.Equal(out.Header, in.Header) {
				t.Fatalf(`Got %x, wanted %x`, out.Header, in.Header)
			}
			if !in.Timestamp.IsZero() && !out.Timestamp.Equal(in.Timestamp) {
				t.Fatalf(`Got %v, wanted %v`, out.Timestamp, in.Timestamp)
			}
		})
	}
}
