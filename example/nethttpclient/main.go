package main

import (
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"time"

	"github.com/LassiHeikkila/WioLTE/http"
	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

func main() {
	output.SetWriter(os.Stdout)
	fmt.Println("Opening module")
	m, err := module.Open(module.Settings{SerialPort: "/dev/ttyUSB2"})
	if err != nil {
		panic(err)
	}
	defer m.Close()

	if err := m.BringUp(30 * time.Second); err != nil {
		panic(err)
	}
	if err := m.Activate("internet", "", "", 2*time.Minute); err != nil {
		panic(err)
	}
	defer m.Deactivate()

	fmt.Println("Creating HTTP client")
	client := &nethttp.Client{
		Transport: &http.Transport{Client: http.NewClient(m)},
	}

	url := "http://example.com"
	fmt.Println("GET", url)
	resp, err := client.Get(url)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Got response: %+v\n", resp)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println("Response body:\n", string(b))
}
