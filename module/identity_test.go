package module_test

import (
	"testing"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/module/moduletest"
)

func TestRSSIToDBm(t *testing.T) {
	tests := map[int]int{
		0:   -113,
		1:   -111,
		2:   -109,
		3:   -107,
		15:  -83,
		30:  -53,
		31:  -51,
		32:  -999,
		99:  -999,
		100: -116,
		101: -115,
		102: -114,
		150: -66,
		190: -26,
		191: -25,
		199: -999,
		-1:  -999,
	}

	for rssi, want := range tests {
		if got := module.RSSIToDBm(rssi); got != want {
			t.Fatalf(`rssi %d: Got %d, wanted %d`, rssi, got, want)
		}
	}
}

func TestReceivedSignalStrength(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.
		Expect("AT+CSQ", moduletest.Lines("+CSQ: 15,99", "OK")).
		Expect("AT+CSQ", moduletest.Lines("+CSQ: 15", "OK"))

	dbm, err := m.ReceivedSignalStrength()
	if err != nil {
		t.Fatal("Got error while not expecting one:", err)
	}
	if dbm != -83 {
		t.Fatalf(`Got %d, wanted %d`, dbm, -83)
	}

	if _, err := m.ReceivedSignalStrength(); err == nil {
		t.Fatal("Expected error but didn't get one")
	}
	if m.LastError() != module.Unknown {
		t.Fatalf(`Got %v, wanted %v`, m.LastError(), module.Unknown)
	}
}

func TestIdentity(t *testing.T) {
	m, modem := moduletest.New(nil)
	modem.
		Expect("AT+CGMR", moduletest.Lines("EC21JFAR06A01M4G", "OK")).
		Expect("AT+GSN", moduletest.Lines("866425030046398", "OK")).
		Expect("AT+CIMI", moduletest.Lines("440103148926412", "OK")).
		Expect("AT+QCCID", moduletest.Lines("+QCCID: 8981100025514212345F", "OK")).
		Expect("AT+CNUM", moduletest.Lines(`+CNUM: "","09012345678",129`, `+CNUM: "","09087654321",129`, "OK"))

	tests := []struct {
		name string
		get  func() (string, error)
		want string
	}{
		{"revision", m.Revision, "EC21JFAR06A01M4G"},
		{"IMEI", m.IMEI, "866425030046398"},
		{"IMSI", m.IMSI, "440103148926412"},
		{"ICCID", m.ICCID, "8981100025514212345"},
		{"phone number", m.PhoneNumber, "09012345678"},
	}

	for _, tc := range tests {
		got, err := tc.get()
		if err != nil {
			t.Fatalf("%s: Got error while not expecting one: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf(`%s: Got "%s", wanted "%s"`, tc.name, got, tc.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	tests := map[string]struct {
		input string
		want  []string
	}{
		"plain": {
			input: "0,1",
			want:  []string{"0", "1"},
		},
		"quoted": {
			input: `"","+819012345678",145`,
			want:  []string{"", "+819012345678", "145"},
		},
		"comma in quotes": {
			input: `1,"a,b"`,
			want:  []string{"1", "a,b"},
		},
		"single": {
			input: "5",
			want:  []string{"5"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := module.ParseArgs(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf(`Got %q, wanted %q`, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf(`Got %q, wanted %q`, got, tc.want)
				}
			}
		})
	}
}

func TestReplyArgs(t *testing.T) {
	args, ok := module.ReplyArgs("+QISTATE: 0,\"TCP\"", "+QISTATE")
	if !ok || len(args) != 2 || args[1] != "TCP" {
		t.Fatalf(`Got %q (%v), wanted ["0" "TCP"]`, args, ok)
	}
	if _, ok := module.ReplyArgs("+QIURC: \"closed\",0", "+QISTATE"); ok {
		t.Fatal("Got match for a different command")
	}
}
