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

	urlToPostTo := flag.Arg(0)
	if urlToPostTo == "" {
		output.Println("Please provide a URL to POST to as the first unnamed argument")
		return
	}

	dataToPost := flag.Arg(1)
	if dataToPost == "" {
		output.Println("Please provide some data to POST as the second unnamed argument")
		return
	}

	m, err := module.Open(module.Settings{SerialPort: *deviceFlag})
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

	header := http.DefaultHeader()
	header.Add("Content-Type", "application/json")
	header.Add("Accept", "application/json")
	status, err := http.NewClient(m).Post(urlToPostTo, []byte(dataToPost), header, 30*time.Second)
	if err != nil {
		output.Println("Failed to POST to", urlToPostTo, ":", err)
		return
	}
	output.Printf("Got status %d\n", status)
}
