// Package console implements the operator command loop that runs next to the
// relay: /list, /stop and /help read from an input stream.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const helpText = `commands:
  /list   show connected users
  /stop   stop the server
  /help   show this help`

// Operator is the part of the server the console drives.
type Operator interface {
	Members() []string
	Stop()
}

// Console reads operator commands line by line.
type Console struct {
	in  io.Reader
	out io.Writer
	op  Operator
	log *zerolog.Logger
}

// New builds a console reading from in and printing to out.
func New(in io.Reader, out io.Writer, op Operator, logger *zerolog.Logger) *Console {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{in: in, out: out, op: op, log: logger}
}

// Run processes commands until ctx is cancelled, the input ends, or /stop is
// entered. Input that ends is not an error.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read console: %w", err)
					}
				default:
				}
				c.log.Debug().Msg("console input closed")
				return nil
			}
			if stop := c.handle(Parse(line)); stop {
				return nil
			}
		}
	}
}

func (c *Console) handle(cmd Command) (stop bool) {
	switch cmd.Kind {
	case CommandEmpty:
	case CommandList:
		members := c.op.Members()
		if len(members) == 0 {
			c.printf("no users connected\n")
			break
		}
		c.printf("%d connected: %s\n", len(members), strings.Join(members, ", "))
	case CommandStop:
		c.log.Info().Msg("stop requested from console")
		c.printf("stopping server\n")
		c.op.Stop()
		return true
	case CommandHelp:
		c.printf("%s\n", helpText)
	default:
		c.printf("unknown command %q, type /help\n", cmd.Raw)
	}
	return false
}

func (c *Console) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.log.Debug().Err(err).Msg("write console output")
	}
}
