package main

import (
	"flag"
	"os"
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
	flag.Parse()

	urlToGet := flag.Arg(0)
	if urlToGet == "" {
		output.Println("Please provide a URL to GET as the first unnamed argument")
		return
	}

	m, err := module.Open(module.Settings{SerialPort: *deviceFlag, Progress: true})
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

	data, err := http.NewClient(m).Get(urlToGet, nil, 30*time.Second)
	if err != nil {
		output.Println("Failed to GET", urlToGet, ":", err)
	} else {
		output.Println("GOT DATA:", string(data))
	}
}
