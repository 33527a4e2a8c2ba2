package module_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/module/moduletest"
)

func TestAwaitCircuitRegistration(t *testing.T) {
	tests := map[string]struct {
		status     string
		wantCode   module.ErrorCode
		wantRounds int
	}{
		"home": {
			status:     "0,1",
			wantCode:   module.OK,
			wantRounds: 1,
		},
		"roaming": {
			status:     "0,5",
			wantCode:   module.OK,
			wantRounds: 1,
		},
		"not searching fails at once": {
			status:     "0,0",
			wantCode:   module.Unknown,
			wantRounds: 1,
		},
		"searching until timeout": {
			status:     "0,2",
			wantCode:   module.Unknown,
			wantRounds: 11,
		},
		"denied keeps polling": {
			status:     "0,3",
			wantCode:   module.Unknown,
			wantRounds: 11,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, modem := moduletest.New(nil)
			modem.ExpectAlways("AT+CREG?", moduletest.Lines("+CREG: "+tc.status, "OK"))

			err := m.AwaitCircuitRegistration(time.Second)
			if module.CodeOf(err) != tc.wantCode {
				t.Fatalf(`Got %v, wanted %v`, module.CodeOf(err), tc.wantCode)
			}
			if m.LastError() != tc.wantCode {
				t.Fatalf(`Got %v, wanted %v`, m.LastError(), tc.wantCode)
			}
			if got := strings.Count(modem.Written(), "AT+CREG?\r"); got != tc.wantRounds {
				t.Fatalf(`Got %d rounds, wanted %d`, got, tc.wantRounds)
			}
		})
	}
}

func TestAwaitPacketRegistration(t *testing.T) {
	tests := map[string]struct {
		cgreg    string
		cereg    string
		wantCode module.ErrorCode
	}{
		"LTE registered": {
			cgreg:    "0,2",
			cereg:    "0,1",
			wantCode: module.OK,
		},
		"GPRS registered": {
			cgreg:    "0,5",
			cereg:    "0,2",
			wantCode: module.OK,
		},
		"neither": {
			cgreg:    "0,2",
			cereg:    "0,4",
			wantCode: module.Unknown,
		},
		"GPRS not searching": {
			cgreg:    "0,0",
			cereg:    "0,1",
			wantCode: module.Unknown,
		},
		"malformed": {
			cgreg:    "2",
			cereg:    "0,1",
			wantCode: module.Unknown,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, modem := moduletest.New(nil)
			modem.
				Expect("AT+CGREG?", moduletest.Lines("+CGREG: "+tc.cgreg, "OK")).
				Expect("AT+CEREG?", moduletest.Lines("+CEREG: "+tc.cereg, "OK"))

			err := m.AwaitPacketRegistration(0)
			if module.CodeOf(err) != tc.wantCode {
				t.Fatalf(`Got %v, wanted %v`, err, tc.wantCode)
			}
		})
	}
}

func TestActivate(t *testing.T) {
	t.Run("already registered", func(t *testing.T) {
		m, modem := moduletest.New(nil)
		modem.
			Expect("AT+CGREG?", moduletest.Lines("+CGREG: 0,1", "OK")).
			Expect("AT+QIACT=1", moduletest.Lines("ERROR")).
			Expect("AT+QIGETERROR", moduletest.Lines("+QIGETERROR: 566,Unknown error", "OK")).
			Expect("AT+QIACT=1", moduletest.Lines("OK"))

		if err := m.Activate("soracom.io", "sora", "sora", 10*time.Second); err != nil {
			t.Fatal("Got error while not expecting one:", err)
		}
		if strings.Contains(modem.Written(), "AT+QICSGP") {
			t.Fatal("APN was configured although the modem was registered")
		}
		if modem.Remaining() != 0 {
			t.Fatalf(`Got %d unused steps, wanted 0`, modem.Remaining())
		}
	})

	t.Run("configures APN", func(t *testing.T) {
		m, modem := moduletest.New(nil)
		modem.
			Expect("AT+CGREG?", moduletest.Lines("+CGREG: 0,2", "OK")).
			Expect("AT+CEREG?", moduletest.Lines("+CEREG: 0,2", "OK")).
			Expect(`AT+QICSGP=1,1,"soracom.io","sora","sora",3`, moduletest.Lines("OK")).
			Expect("AT+CGREG?", moduletest.Lines("+CGREG: 0,2", "OK")).
			Expect("AT+CEREG?", moduletest.Lines("+CEREG: 0,5", "OK")).
			Expect("AT+QIACT=1", moduletest.Lines("OK"))

		if err := m.Activate("soracom.io", "sora", "sora", 10*time.Second); err != nil {
			t.Fatal("Got error while not expecting one:", err)
		}
		if modem.Remaining() != 0 {
			t.Fatalf(`Got %d unused steps, wanted 0`, modem.Remaining())
		}
	})

	t.Run("registration fails", func(t *testing.T) {
		m, modem := moduletest.New(nil)
		modem.
			Expect("AT+CGREG?", moduletest.Lines("+CGREG: 0,2", "OK")).
			Expect("AT+CEREG?", moduletest.Lines("+CEREG: 0,2", "OK")).
			Expect(`AT+QICSGP=1,1,"internet","","",3`, moduletest.Lines("OK")).
			Expect("AT+CGREG?", moduletest.Lines("+CGREG: 0,0", "OK"))

		err := m.Activate("internet", "", "", 10*time.Second)
		if !errors.Is(err, module.ErrNotRegistered) {
			t.Fatalf(`Got %v, wanted %v`, err, module.ErrNotRegistered)
		}
		if strings.Contains(modem.Written(), "AT+QIACT") {
			t.Fatal("Activation attempted without registration")
		}
	})
}

func TestDeactivate(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := module.NewMockChannel(ctrl)
	m := module.New(ch, nil)

	gomock.InOrder(
		ch.EXPECT().SendAndAwait("AT+QIDEACT=1", "^OK$", 40*time.Second).Return("OK", nil),
		ch.EXPECT().SendAndAwait("AT+QIDEACT=1", "^OK$", 40*time.Second).Return("", module.ErrTimeout),
	)

	if err := m.Deactivate(); err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if err := m.Deactivate(); module.CodeOf(err) != module.Unknown {
		t.Fatalf(`Got %v, wanted %v`, err, module.Unknown)
	}
	if m.LastError() != module.Unknown {
		t.Fatalf(`Got %v, wanted %v`, m.LastError(), module.Unknown)
	}
}
