// Command pl is a short alias for phaseline.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func main() {
	bin, err := exec.LookPath("phaseline")
	if err != nil {
		fmt.Fprintln(os.Stderr, "pl: phaseline not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"phaseline"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "pl: %v\n", err)
		os.Exit(1)
	}
}
