// Package sms reads and sends short messages through the modem.
//
// Received messages are listed in PDU mode and decoded here.
// Sending is done in text mode, or in PDU mode with SendPDU.
package sms

import (
	"strings"
	"time"

	"github.com/warthog618/sms/encoding/gsm7"
	"github.com/warthog618/sms/encoding/tpdu"
	"github.com/warthog618/sms/encoding/ucs2"
)

const (
	mtiMask    = 0x03
	mtiDeliver = 0x00
	udhiBit    = 0x40
	mmsBit     = 0x04

	sctsLen = 7

	typeNational      = 0x81
	typeInternational = 0x91
)

// Deliver is a decoded SMS-DELIVER.
type Deliver struct {
	// Originator is the sender's number, digits only.
	Originator  string
	AddressType byte
	PID         byte
	DCS         byte
	// Timestamp is the service centre time stamp.
	// It is zero if the field did not hold a valid date.
	Timestamp time.Time
	// Header is the user data header without its length byte.
	Header []byte
	Text   string
}

// reader walks a PDU. Every read checks the remaining length first.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) octet() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, ErrTruncated
	}
	c := r.b[r.pos]
	r.pos++
	return c, nil
}

func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || n > len(r.b)-r.pos {
		return nil, ErrTruncated
	}
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) rest() []byte {
	return r.b[r.pos:]
}

// DecodeDeliver decodes a PDU as read from AT+CMGR in PDU mode,
// including the leading SMSC field.
func DecodeDeliver(pdu []byte) (*Deliver, error) {
	r := reader{b: pdu}
	d := new(Deliver)

	smscLen, err := r.octet()
	if err != nil {
		return nil, err
	}
	if _, err := r.next(int(smscLen)); err != nil {
		return nil, err
	}

	mti, err := r.octet()
	if err != nil {
		return nil, err
	}
	if mti&mtiMask != mtiDeliver {
		return nil, ErrNotDeliver
	}

	d.Originator, d.AddressType, err = readAddress(&r)
	if err != nil {
		return nil, err
	}
	if d.PID, err = r.octet(); err != nil {
		return nil, err
	}
	if d.DCS, err = r.octet(); err != nil {
		return nil, err
	}
	scts, err := r.next(sctsLen)
	if err != nil {
		return nil, err
	}
	d.Timestamp = decodeTimestamp(scts)

	udl, err := r.octet()
	if err != nil {
		return nil, err
	}
	count := int(udl)
	if mti&udhiBit != 0 {
		udhl, err := r.octet()
		if err != nil {
			return nil, err
		}
		if d.Header, err = r.next(int(udhl)); err != nil {
			return nil, err
		}
		count -= 1 + int(udhl)
		if count < 0 {
			return nil, ErrBadHeaderLength
		}
	}

	text, err := decodeText(d.DCS, r.rest(), count)
	if err != nil {
		return nil, err
	}
	d.Text = text
	return d, nil
}

func decodeText(dcs byte, ud []byte, count int) (string, error) {
	alphabet, err := tpdu.DCS(dcs).Alphabet()
	if err != nil {
		alphabet = tpdu.Alpha7Bit
	}
	switch alphabet {
	case tpdu.AlphaUCS2:
		if count > len(ud) {
			return "", ErrTruncated
		}
		runes, err := ucs2.Decode(ud[:count])
		if err != nil {
			return "", err
		}
		return string(runes), nil
	case tpdu.Alpha8Bit:
		if count > len(ud) {
			return "", ErrTruncated
		}
		return string(ud[:count]), nil
	default:
		septets, err := Unpack7(ud, count)
		if err != nil {
			return "", err
		}
		text, err := gsm7.Decode(septets)
		if err != nil {
			return string(septets), nil
		}
		return string(text), nil
	}
}

// Unpack7 extracts n septets packed LSB first into b.
// Septet i is taken from byte i-i/8; when i%8 is not zero the byte is
// combined with the one before it and the 7-bit window shifted down.
func Unpack7(b []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		offset := i - i/8
		shift := uint(i % 8)
		if shift == 0 {
			if offset >= len(b) {
				return nil, ErrTruncated
			}
			out[i] = b[offset] & 0x7f
			continue
		}
		if offset-1 >= len(b) {
			return nil, ErrTruncated
		}
		var hi int
		switch {
		case offset < len(b):
			hi = int(b[offset])
		case shift != 7:
			return nil, ErrTruncated
		}
		// with a shift of 7 the septet lies entirely in the low byte
		out[i] = byte((((hi << 8) | int(b[offset-1])) << shift >> 8) & 0x7f)
	}
	return out, nil
}

// DecodeAddress decodes an address field: its length in digits, the type
// of address, then two digits per byte, low nibble first.
func DecodeAddress(field []byte) (string, error) {
	r := reader{b: field}
	s, _, err := readAddress(&r)
	return s, err
}

func readAddress(r *reader) (string, byte, error) {
	digits, err := r.octet()
	if err != nil {
		return "", 0, err
	}
	toa, err := r.octet()
	if err != nil {
		return "", 0, err
	}
	packed, err := r.next((int(digits) + 1) / 2)
	if err != nil {
		return "", 0, err
	}
	var sb strings.Builder
	for i := 0; i < int(digits); i++ {
		nibble := packed[i/2]
		if i%2 == 0 {
			nibble &= 0x0f
		} else {
			nibble >>= 4
		}
		sb.WriteByte('0' + nibble)
	}
	return sb.String(), toa, nil
}

func encodeAddress(number string) []byte {
	toa := byte(typeNational)
	if strings.HasPrefix(number, "+") {
		toa = typeInternational
		number = number[1:]
	}
	field := []byte{byte(len(number)), toa}
	for i := 0; i < len(number); i += 2 {
		b := (number[i] - '0') & 0x0f
		if i+1 < len(number) {
			b |= ((number[i+1] - '0') & 0x0f) << 4
		} else {
			b |= 0xf0
		}
		field = append(field, b)
	}
	return field
}

func decodeTimestamp(b []byte) time.Time {
	var v [6]int
	for i := range v {
		lo, hi := int(b[i]&0x0f), int(b[i]>>4)
		if lo > 9 || hi > 9 {
			return time.Time{}
		}
		v[i] = lo*10 + hi
	}
	tz := b[6]
	quarters := int(tz&0x07)*10 + int(tz>>4)
	if tz&0x08 != 0 {
		quarters = -quarters
	}
	loc := time.FixedZone("", quarters*15*60)
	return time.Date(2000+v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, loc)
}

func encodeTimestamp(t time.Time) []byte {
	b := make([]byte, sctsLen)
	if t.IsZero() {
		return b
	}
	swap := func(v int) byte {
		return byte(v%10)<<4 | byte(v/10%10)
	}
	b[0] = swap(t.Year() % 100)
	b[1] = swap(int(t.Month()))
	b[2] = swap(t.Day())
	b[3] = swap(t.Hour())
	b[4] = swap(t.Minute())
	b[5] = swap(t.Second())
	_, offset := t.Zone()
	quarters := offset / (15 * 60)
	sign := byte(0)
	if quarters < 0 {
		quarters, sign = -quarters, 0x08
	}
	b[6] = swap(quarters) | sign
	return b
}

// EncodeDeliver builds the PDU DecodeDeliver reads, with an empty SMSC
// field and the GSM 7-bit alphabet; d.DCS is ignored. Header, if set, is
// placed in front of the text and the text starts on the next byte.
func EncodeDeliver(d Deliver) ([]byte, error) {
	septets, err := gsm7.Encode([]byte(d.Text))
	if err != nil {
		return nil, err
	}
	mti := byte(mtiDeliver | mmsBit)
	if len(d.Header) > 0 {
		mti |= udhiBit
	}

	pdu := []byte{0x00, mti}
	pdu = append(pdu, encodeAddress(d.Originator)...)
	pdu = append(pdu, d.PID, 0x00)
	pdu = append(pdu, encodeTimestamp(d.Timestamp)...)
	udl := len(septets)
	if len(d.Header) > 0 {
		udl += 1 + len(d.Header)
	}
	if udl > 0xff {
		return nil, ErrBadHeaderLength
	}
	pdu = append(pdu, byte(udl))
	if len(d.Header) > 0 {
		pdu = append(pdu, byte(len(d.Header)))
		pdu = append(pdu, d.Header...)
	}
	return append(pdu, gsm7.Pack7Bit(septets, 0)...), nil
}
