package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
	"github.com/LassiHeikkila/WioLTE/socket"
)

func main() {
	apnFlag := flag.String("apn", "internet", "Which APN to use when connecting to network")
	deviceFlag := flag.String("device", "/dev/ttyUSB2", "Which device to talk to module through")
	addrFlag := flag.String("addr", "tcpbin.com:4242", "Echo server to talk to")
	flag.Parse()

	output.SetWriter(os.Stdout)

	m, err := module.Open(module.Settings{SerialPort: *deviceFlag})
	if err != nil {
		fmt.Println("Failed to open module:", err)
		return
	}
	defer m.Close()

	if err := m.BringUp(30 * time.Second); err != nil {
		fmt.Println("Failed to bring up module:", err)
		return
	}
	if err := m.Activate(*apnFlag, "", "", 2*time.Minute); err != nil {
		fmt.Println("Failed to activate PDP context:", err)
		return
	}
	defer m.Deactivate()

	conn, err := socket.Dial(m, "tcp", *addrFlag)
	if err != nil {
		fmt.Println("Failed to connect:", err)
		return
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	if _, err := fmt.Fprintln(conn, "hello from WioLTE"); err != nil {
		fmt.Println("Failed to write:", err)
		return
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		fmt.Println("Failed to read:", err)
		return
	}
	fmt.Printf("Got echo: %q\n", line)
}
