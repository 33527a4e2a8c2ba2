package sms

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	wsms "github.com/warthog618/sms"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

// NoMessage is the index reported when the storage holds no received message.
const NoMessage = -1

const (
	ctrlZ        = "\x1a"
	replyTimeout = 500 * time.Millisecond
	sendTimeout  = 120 * time.Second
)

// Message is a received message and where it is stored.
type Message struct {
	Index int
	Deliver
}

// Mailbox gives access to the SMS storage of a Module.
type Mailbox struct {
	m  *module.Module
	ch module.Channel
}

// NewMailbox returns a Mailbox using m.
func NewMailbox(m *module.Module) *Mailbox {
	return &Mailbox{m: m, ch: m.Channel()}
}

// FirstIndex returns the storage index of the first received message,
// or NoMessage.
func (b *Mailbox) FirstIndex() (int, error) {
	idx, err := b.firstIndex()
	return idx, b.m.Record(err)
}

func (b *Mailbox) firstIndex() (int, error) {
	if _, err := b.ch.SendAndAwait("AT+CMGF=0", "^OK$", replyTimeout); err != nil {
		return NoMessage, module.Errorf(module.Unknown, "select PDU mode: %w", err)
	}
	if err := b.ch.Send("AT+CMGL=4"); err != nil {
		return NoMessage, module.Errorf(module.Unknown, "list messages: %w", err)
	}
	idx := NoMessage
	for {
		resp, err := b.ch.Await(`^(OK|\+CMGL: .*)$`, replyTimeout)
		if err != nil {
			return NoMessage, module.Errorf(module.Unknown, "list messages: %w", err)
		}
		if resp == "OK" {
			return idx, nil
		}
		if idx == NoMessage {
			args, _ := module.ReplyArgs(resp, "+CMGL")
			if len(args) != 4 {
				return NoMessage, module.Errorf(module.Unknown, "list messages: %q: %w", resp, module.ErrUnexpectedReply)
			}
			if idx, err = module.Atoi(args[0]); err != nil {
				return NoMessage, module.Errorf(module.Unknown, "list messages: bad index %q: %w", args[0], err)
			}
		}
		// every entry is followed by its PDU
		if _, err := b.ch.Await("^.+$", replyTimeout); err != nil {
			return NoMessage, module.Errorf(module.Unknown, "list messages: %w", err)
		}
	}
}

// Send sends text to number in text mode.
func (b *Mailbox) Send(number, text string) error {
	return b.m.Record(b.send(number, text))
}

func (b *Mailbox) send(number, text string) error {
	if _, err := b.ch.SendAndAwait("AT+CMGF=1", "^OK$", replyTimeout); err != nil {
		return module.Errorf(module.Unknown, "select text mode: %w", err)
	}
	if _, err := b.ch.SendAndAwait(fmt.Sprintf(`AT+CMGS="%s"`, number), "^>", replyTimeout); err != nil {
		return module.Errorf(module.Unknown, "no prompt for message: %w", err)
	}
	if err := b.ch.WriteBinary([]byte(text + ctrlZ)); err != nil {
		return module.WithCode(module.Unknown, err)
	}
	if _, err := b.ch.Await("^OK$", sendTimeout); err != nil {
		return module.Errorf(module.Unknown, "message not accepted: %w", err)
	}
	output.Printf("Sent %d characters to %s\n", len(text), number)
	return nil
}

// SendPDU sends text to number in PDU mode. The alphabet is chosen to
// fit the text, and long texts are split into concatenated parts.
func (b *Mailbox) SendPDU(number, text string) error {
	return b.m.Record(b.sendPDU(number, text))
}

func (b *Mailbox) sendPDU(number, text string) error {
	tpdus, err := wsms.Encode([]byte(text), wsms.AsSubmit, wsms.To(number), wsms.WithAllCharsets)
	if err != nil {
		return module.Errorf(module.Unknown, "encode message: %w", err)
	}
	if _, err := b.ch.SendAndAwait("AT+CMGF=0", "^OK$", replyTimeout); err != nil {
		return module.Errorf(module.Unknown, "select PDU mode: %w", err)
	}
	for i, p := range tpdus {
		tp, err := p.MarshalBinary()
		if err != nil {
			return module.Errorf(module.Unknown, "marshal part %d: %w", i+1, err)
		}
		if _, err := b.ch.SendAndAwait(fmt.Sprintf("AT+CMGS=%d", len(tp)), "^>", replyTimeout); err != nil {
			return module.Errorf(module.Unknown, "no prompt for part %d: %w", i+1, err)
		}
		// the modem's default SMSC is selected with an empty SMSC field
		pdu := strings.ToUpper(hex.EncodeToString(append([]byte{0x00}, tp...)))
		if err := b.ch.WriteBinary([]byte(pdu + ctrlZ)); err != nil {
			return module.WithCode(module.Unknown, err)
		}
		if _, err := b.ch.Await("^OK$", sendTimeout); err != nil {
			return module.Errorf(module.Unknown, "part %d not accepted: %w", i+1, err)
		}
	}
	output.Printf("Sent %d part(s) to %s\n", len(tpdus), number)
	return nil
}

// Receive reads the first received message.
// An empty storage is not an error: the returned Message has Index NoMessage.
func (b *Mailbox) Receive() (Message, error) {
	msg, err := b.receive()
	return msg, b.m.Record(err)
}

func (b *Mailbox) receive() (Message, error) {
	msg := Message{Index: NoMessage}
	idx, err := b.firstIndex()
	if err != nil {
		return msg, err
	}
	if idx == NoMessage {
		return msg, nil
	}

	if _, err := b.ch.SendAndAwait("AT+CMGF=0", "^OK$", replyTimeout); err != nil {
		return msg, module.Errorf(module.Unknown, "select PDU mode: %w", err)
	}
	if _, err := b.ch.SendAndAwait(fmt.Sprintf("AT+CMGR=%d", idx), `^\+CMGR: .*$`, replyTimeout); err != nil {
		return msg, module.Errorf(module.Unknown, "read message %d: %w", idx, err)
	}
	pduHex, err := b.ch.Await("^(.+)$", replyTimeout)
	if err != nil {
		return msg, module.Errorf(module.Unknown, "read message %d: %w", idx, err)
	}
	if _, err := b.ch.Await("^OK$", replyTimeout); err != nil {
		return msg, module.Errorf(module.Unknown, "read message %d: %w", idx, err)
	}

	if len(pduHex)%2 != 0 {
		return msg, module.WithCode(module.Unknown, ErrOddHex)
	}
	pdu, err := hex.DecodeString(pduHex)
	if err != nil {
		return msg, module.Errorf(module.Unknown, "message %d: %w", idx, err)
	}
	d, err := DecodeDeliver(pdu)
	if err != nil {
		return msg, module.Errorf(module.Unknown, "decode message %d: %w", idx, err)
	}
	msg.Index = idx
	msg.Deliver = *d
	return msg, nil
}

// DeleteFirstReceived deletes the first received message.
// Unlike Receive, an empty storage is reported as an error.
func (b *Mailbox) DeleteFirstReceived() error {
	return b.m.Record(b.deleteFirstReceived())
}

func (b *Mailbox) deleteFirstReceived() error {
	idx, err := b.firstIndex()
	if err != nil {
		return err
	}
	if idx == NoMessage {
		return module.WithCode(module.Unknown, ErrNoMessage)
	}
	if _, err := b.ch.SendAndAwait(fmt.Sprintf("AT+CMGD=%d", idx), "^OK$", replyTimeout); err != nil {
		return module.Errorf(module.Unknown, "delete message %d: %w", idx, err)
	}
	return nil
}
