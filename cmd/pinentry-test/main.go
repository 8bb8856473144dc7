// Command pinentry-test spawns a pinentry program (pinentry-assuan by
// default) and drives it through assuanclient, printing the PIN it
// returns. It is a manual smoke-test tool, not part of the protocol
// engine itself.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/go-assuan/pinentry/assuanclient"
)

type processPipe struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p *processPipe) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *processPipe) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func run() error {
	binary := os.Getenv("PINENTRY_TEST_BINARY")
	if binary == "" {
		binary = "pinentry-assuan"
	}

	cmd := exec.Command(binary)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	client, err := assuanclient.NewClient(&processPipe{stdin: stdin, stdout: stdout},
		assuanclient.WithDesc("My multiline\ndescription"),
		assuanclient.WithPrompt("My prompt:"),
		assuanclient.WithTitle("My title"),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Error("close", "err", err)
		}
		_ = cmd.Wait()
	}()

	switch pin, err := client.GetPIN(); {
	case assuanclient.IsCanceled(err):
		fmt.Println("Cancelled")
		return err
	case err != nil:
		return err
	default:
		fmt.Printf("PIN: %s\n", pin)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
