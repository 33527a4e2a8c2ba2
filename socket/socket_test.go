package socket_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/module/moduletest"
	"github.com/LassiHeikkila/WioLTE/socket"
)

func stateLine(id int) string {
	return fmt.Sprintf(`+QISTATE: %d,"TCP","10.0.0.1",80,0,2,1,0,0,"uart1"`, id)
}

func TestOpen(t *testing.T) {
	allUsed := make([]string, 0, socket.MaxConnections)
	for i := 0; i < socket.MaxConnections; i++ {
		allUsed = append(allUsed, stateLine(i))
	}

	tests := map[string]struct {
		states    []string
		want      int
		expectErr bool
	}{
		"none in use": {
			states: nil,
			want:   0,
		},
		"lowest free": {
			states: []string{stateLine(0), stateLine(1), stateLine(2)},
			want:   3,
		},
		"gap": {
			states: []string{stateLine(0), stateLine(2)},
			want:   1,
		},
		"all in use": {
			states:    allUsed,
			expectErr: true,
		},
		"id out of range": {
			states:    []string{stateLine(socket.MaxConnections)},
			expectErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, modem := moduletest.New(nil)
			modem.Expect("AT+QISTATE?", moduletest.Lines(append(tc.states, "OK")...))
			if !tc.expectErr {
				modem.Expect(
					fmt.Sprintf(`AT+QIOPEN=1,%d,"TCP","example.com",80`, tc.want),
					moduletest.Lines("OK", fmt.Sprintf("+QIOPEN: %d,0", tc.want)),
				)
			}

			got, err := socket.NewManager(m).Open("example.com", 80, socket.TCP)
			if err != nil && !tc.expectErr {
				t.Fatal("Got error while not expecting one:", err)
			}
			if err == nil && tc.expectErr {
				t.Fatal("Expected error but didn't get one")
			}
			if tc.expectErr {
				if m.LastError() != module.Unknown {
					t.Fatalf(`Got %v, wanted %v`, m.LastError(), module.Unknown)
				}
				return
			}
			if got != tc.want {
				t.Fatalf(`Got %d, wanted %d`, got, tc.want)
			}
			if modem.Remaining() != 0 {
				t.Fatalf(`Got %d unused steps, wanted 0`, modem.Remaining())
			}
		})
	}
}

func TestOpenBadArguments(t *testing.T) {
	tests := map[string]struct {
		host string
		port int
		typ  socket.Type
	}{
		"empty host":   {host: "", port: 80, typ: socket.TCP},
		"port too big": {host: "example.com", port: 65536, typ: socket.UDP},
		"bad type":     {host: "example.com", port: 80, typ: socket.Type(7)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, modem := moduletest.New(nil)
			_, err := socket.NewManager(m).Open(tc.host, tc.port, tc.typ)
			if !errors.Is(err, socket.ErrBadArgument) {
				t.Fatalf(`Got %v, wanted %v`, err, socket.ErrBadArgument)
			}
			if modem.Written() != "" {
				t.Fatalf(`Got %q written, wanted nothing`, modem.Written())
			}
		})
	}
}

func TestOpenFailure(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.
		Expect("AT+QISTATE?", moduletest.Lines("OK")).
		Expect(`AT+QIOPEN=1,0,"UDP","10.0.0.2",5000`, moduletest.Lines("OK", "+QIOPEN: 0,565"))

	_, err := socket.NewManager(m).Open("10.0.0.2", 5000, socket.UDP)
	if err == nil {
		t.Fatal("Expected error but didn't get one")
	}
	if !errors.Is(err, module.ErrTimeout) {
		t.Fatalf(`Got %v, wanted %v`, err, module.ErrTimeout)
	}
}

func TestStates(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.Expect("AT+QISTATE?", moduletest.Lines(
		`+QISTATE: 1,"TCP","10.0.0.1",8080,61000,2,1,1,0,"uart1"`,
		`+QISTATE: 4,"UDP","10.0.0.9",53,61001,4,1,4,0,"uart1"`,
		"OK",
	))

	got, err := socket.NewManager(m).States()
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	want := []socket.Info{
		{ID: 1, Service: "TCP", RemoteIP: "10.0.0.1", RemotePort: 8080, LocalPort: 61000, State: socket.StateConnected},
		{ID: 4, Service: "UDP", RemoteIP: "10.0.0.9", RemotePort: 53, LocalPort: 61001, State: socket.StateClosing},
	}
	if len(got) != len(want) {
		t.Fatalf(`Got %v, wanted %v`, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf(`Got %v, wanted %v`, got[i], want[i])
		}
	}
}

func TestSend(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.
		Expect("AT+QISEND=0,5", "\r\n> ").
		ExpectData("hello", moduletest.Lines("SEND OK"))

	if err := socket.NewManager(m).Send(0, []byte("hello")); err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if modem.Remaining() != 0 {
		t.Fatalf(`Got %d unused steps, wanted 0`, modem.Remaining())
	}
}

func TestSendTooLarge(t *testing.T) {
	m, modem := moduletest.New(nil)
	err := socket.NewManager(m).Send(0, make([]byte, socket.MaxSendSize+1))
	if !errors.Is(err, socket.ErrTooLarge) {
		t.Fatalf(`Got %v, wanted %v`, err, socket.ErrTooLarge)
	}
	if modem.Written() != "" {
		t.Fatalf(`Got %q written, wanted nothing`, modem.Written())
	}
}

func TestConnectionIDOutOfRange(t *testing.T) {
	ops := map[string]func(*socket.Manager, int) error{
		"send": func(s *socket.Manager, id int) error {
			return s.Send(id, []byte("x"))
		},
		"receive": func(s *socket.Manager, id int) error {
			_, err := s.Receive(id, make([]byte, 16))
			return err
		},
		"receive timeout": func(s *socket.Manager, id int) error {
			_, err := s.ReceiveTimeout(id, make([]byte, 16), time.Second)
			return err
		},
		"close": func(s *socket.Manager, id int) error {
			return s.Close(id)
		},
	}

	for name, op := range ops {
		for _, id := range []int{-1, socket.MaxConnections} {
			t.Run(fmt.Sprintf("%s %d", name, id), func(t *testing.T) {
				m, modem := moduletest.New(nil)
				err := op(socket.NewManager(m), id)
				if !errors.Is(err, socket.ErrBadArgument) {
					t.Fatalf(`Got %v, wanted %v`, err, socket.ErrBadArgument)
				}
				if m.LastError() != module.Unknown {
					t.Fatalf(`Got %v, wanted %v`, m.LastError(), module.Unknown)
				}
				if modem.Written() != "" {
					t.Fatalf(`Got %q written, wanted nothing`, modem.Written())
				}
			})
		}
	}
}

func TestSendFail(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.
		Expect("AT+QISEND=0,2", "\r\n> ").
		ExpectData("hi", moduletest.Lines("SEND FAIL"))

	err := socket.NewManager(m).Send(0, []byte("hi"))
	if module.CodeOf(err) != module.Unknown {
		t.Fatalf(`Got %v, wanted %v`, err, module.Unknown)
	}
}

func TestReceive(t *testing.T) {
	tests := map[string]struct {
		reply     string
		capacity  int
		want      string
		expectErr error
	}{
		"data": {
			reply:    "\r\n+QIRD: 5\r\nhello\r\nOK\r\n",
			capacity: 16,
			want:     "hello",
		},
		"data with CRLF": {
			reply:    "\r\n+QIRD: 4\r\na\r\nb\r\nOK\r\n",
			capacity: 4,
			want:     "a\r\nb",
		},
		"udp": {
			reply:    "\r\n+QIRD: 3,\"10.0.0.9\",53\r\nabc\r\nOK\r\n",
			capacity: 16,
			want:     "abc",
		},
		"nothing": {
			reply:    moduletest.Lines("+QIRD: 0", "OK"),
			capacity: 16,
			want:     "",
		},
		"buffer too small": {
			reply:     "\r\n+QIRD: 10\r\n0123456789\r\nOK\r\n",
			capacity:  4,
			expectErr: module.ErrBufferTooSmall,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, modem := moduletest.New(nil)
			modem.Expect("AT+QIRD=0", tc.reply)

			buf := make([]byte, tc.capacity)
			n, err := socket.NewManager(m).Receive(0, buf)
			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf(`Got %v, wanted %v`, err, tc.expectErr)
				}
				if n != 0 {
					t.Fatalf(`Got %d, wanted 0`, n)
				}
				return
			}
			if err != nil {
				t.Fatal("Got error while not expecting one:", err)
			}
			if got := string(buf[:n]); got != tc.want {
				t.Fatalf(`Got %q, wanted %q`, got, tc.want)
			}
		})
	}
}

func TestReceiveTimeout(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.ExpectAlways("AT+QIRD=0", moduletest.Lines("+QIRD: 0", "OK"))

	start := modem.Clock.Now()
	n, err := socket.NewManager(m).ReceiveTimeout(0, make([]byte, 16), time.Second)
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if n != 0 {
		t.Fatalf(`Got %d, wanted 0`, n)
	}
	if elapsed := modem.Clock.Now().Sub(start); elapsed < time.Second {
		t.Fatalf(`Got %v, wanted at least %v`, elapsed, time.Second)
	}
}

func TestReceiveTimeoutData(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.
		Expect("AT+QIRD=0", moduletest.Lines("+QIRD: 0", "OK")).
		Expect("AT+QIRD=0", moduletest.Lines("+QIRD: 0", "OK")).
		Expect("AT+QIRD=0", "\r\n+QIRD: 2\r\nok\r\nOK\r\n")

	buf := make([]byte, 16)
	n, err := socket.NewManager(m).ReceiveTimeout(0, buf, 10*time.Second)
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if got := string(buf[:n]); got != "ok" {
		t.Fatalf(`Got %q, wanted %q`, got, "ok")
	}
}

func TestClose(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.Expect("AT+QICLOSE=2", moduletest.Lines("OK"))

	if err := socket.NewManager(m).Close(2); err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
}

func TestConn(t *testing.T) {
	m, modem := moduletest.New(nil)
	payload := bytes.Repeat([]byte("a"), 2000)
	modem.
		Expect("AT+QISTATE?", moduletest.Lines("OK")).
		Expect(`AT+QIOPEN=1,0,"TCP","example.com",80`, moduletest.Lines("OK", "+QIOPEN: 0,0")).
		Expect("AT+QISEND=0,1460", "\r\n> ").
		ExpectData(string(payload[:1460]), moduletest.Lines("SEND OK")).
		Expect("AT+QISEND=0,540", "\r\n> ").
		ExpectData(string(payload[1460:]), moduletest.Lines("SEND OK")).
		Expect("AT+QIRD=0", "\r\n+QIRD: 5\r\nhello\r\nOK\r\n")
	// an empty read round, then the peer is gone
	for i := 0; i < 11; i++ {
		modem.Expect("AT+QIRD=0", moduletest.Lines("+QIRD: 0", "OK"))
	}
	modem.
		Expect("AT+QISTATE?", moduletest.Lines("OK")).
		Expect("AT+QICLOSE=0", moduletest.Lines("OK"))

	conn, err := socket.Dial(m, "tcp", "example.com:80")
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if got := conn.RemoteAddr().String(); got != "example.com:80" {
		t.Fatalf(`Got %q, wanted %q`, got, "example.com:80")
	}

	n, err := conn.Write(payload)
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if n != len(payload) {
		t.Fatalf(`Got %d, wanted %d`, n, len(payload))
	}

	b := make([]byte, 3)
	if n, err = conn.Read(b); err != nil || string(b[:n]) != "hel" {
		t.Fatalf(`Got %q, %v, wanted "hel"`, b[:n], err)
	}
	if n, err = conn.Read(b); err != nil || string(b[:n]) != "lo" {
		t.Fatalf(`Got %q, %v, wanted "lo"`, b[:n], err)
	}
	if _, err = conn.Read(b); err != io.EOF {
		t.Fatalf(`Got %v, wanted %v`, err, io.EOF)
	}

	if err := conn.Close(); err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if modem.Remaining() != 0 {
		t.Fatalf(`Got %d unused steps, wanted 0`, modem.Remaining())
	}
}

func TestDialUnsupportedNetwork(t *testing.T) {
	m, _ := moduletest.New(nil)
	if _, err := socket.Dial(m, "unix", "/tmp/sock"); err == nil {
		t.Fatal("Expected error but didn't get one")
	}
}
