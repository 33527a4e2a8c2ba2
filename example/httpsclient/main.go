package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/LassiHeikkila/WioLTE/http"
	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

func init() {
	output.SetWriter(os.Stdout)
}

func main() {
	apnFlag := flag.String("apn", "internet", "Which APN to use when connecting to network")
	deviceFlag := flag.String("device", "/dev/ttyUSB2", "Which device to talk to module through")
	traceFlag := flag.Bool("trace", false, "Log everything exchanged with the module")
	flag.Parse()

	urlToGet := flag.Arg(0)
	if !strings.HasPrefix(urlToGet, "https://") {
		output.Println("Please provide an https:// URL to GET as the first unnamed argument")
		return
	}

	settings := module.Settings{SerialPort: *deviceFlag}
	if *traceFlag {
		settings.TraceLogger = log.New(os.Stderr, "MODULE TRACE:", log.Lmicroseconds)
	}
	m, err := module.Open(settings)
	if err != nil {
		output.Println("Failed to open module:", err)
		return
	}
	defer m.Close()

	if err := m.BringUp(30 * time.Second); err != nil {
		output.Println("Failed to bring up module:", err)
		return
	}
	if err := m.Activate(*apnFlag, "", "", 2*time.Minute); err != nil {
		output.Println("Failed to activate PDP context:", err)
		return
	}
	defer m.Deactivate()

	// the modem does not verify the server certificate
	header := http.Header{
		{Name: "Accept", Value: "application/json"},
		{Name: "User-Agent", Value: http.UserAgent},
	}
	data, err := http.NewClient(m).Get(urlToGet, header, time.Minute)
	if err != nil {
		output.Println("Failed to GET", urlToGet, ":", err)
		return
	}
	output.Println("GOT DATA:", string(data))
}
