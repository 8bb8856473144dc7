// Command assuan-hijack sits between an Assuan client and a real Assuan
// server binary, copying the session through unmodified while logging
// every line to a file, one entry per direction. It mirrors
// original_source's assuan-hijack binary contract byte for byte.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/go-assuan/pinentry/internal/hijack"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: assuan-hijack OUTPUT_PATH EXECUTABLE_PATH [--] [args..]")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "assuan-hijack:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}
	outputPath, executable := args[0], args[1]
	rest := args[2:]
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}

	openOutput := func() (*os.File, error) {
		return os.OpenFile(outputPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	}
	outReqs, err := openOutput()
	if err != nil {
		return fmt.Errorf("couldn't open output file: %w", err)
	}
	defer outReqs.Close()
	outResps, err := openOutput()
	if err != nil {
		return fmt.Errorf("couldn't open output file: %w", err)
	}
	defer outResps.Close()

	cmd := exec.Command(executable, rest...)
	cmd.Stderr = os.Stderr

	childStdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("couldn't capture stdin: %w", err)
	}
	childStdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("couldn't capture stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start executable: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		capture := hijack.NewCapture(os.Stdin, outReqs, []byte("C: "))
		if _, err := io.Copy(childStdin, capture); err != nil {
			fmt.Fprintln(os.Stderr, "assuan-hijack: copying requests failed:", err)
		}
		childStdin.Close()
	}()

	go func() {
		defer wg.Done()
		capture := hijack.NewCapture(childStdout, outResps, []byte("S: "))
		if _, err := io.Copy(os.Stdout, capture); err != nil {
			fmt.Fprintln(os.Stderr, "assuan-hijack: copying responses failed:", err)
		}
	}()

	wg.Wait()
	return cmd.Wait()
}
