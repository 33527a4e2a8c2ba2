package module

import (
	"github.com/LassiHeikkila/WioLTE/output"
)

func print(a ...interface{}) {
	output.Println(a...)
}

func printf(f string, a ...interface{}) {
	output.Printf(f, a...)
}
