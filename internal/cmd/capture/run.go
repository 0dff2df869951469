package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	cfgpkg "github.com/rzbill/lodge/internal/config"
	"github.com/rzbill/lodge/internal/runtime"
	"github.com/rzbill/lodge/pkg/log"
)

// maxLineBytes bounds one captured input line.
const maxLineBytes = 1 << 20

type Options struct {
	Config cfgpkg.Config
	// Input is read line by line. Defaults to os.Stdin.
	Input io.Reader
	// Component tags every captured line. Defaults to "capture".
	Component string
	// Level each line is logged at. Defaults to info.
	Level string
	// Outputs are attached to the runtime logger next to storage.
	Outputs []log.Output
}

// Run logs every line of opts.Input through the runtime until the input ends
// or ctx is cancelled, then closes the runtime so buffered lines are flushed.
func Run(ctx context.Context, opts Options) (err error) {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Component == "" {
		opts.Component = "capture"
	}
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	rt, err := runtime.Open(runtime.Options{Config: opts.Config, Outputs: opts.Outputs})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	logger := rt.Logger()
	logger.Info("capture started",
		log.Str("dir", rt.Store().Dir()),
		log.Str("file", rt.Store().CurrentFile()),
		log.Bool("storage", rt.Storage().Enabled()),
	)
	out := log.ToStdLogger(logger.WithComponent(opts.Component), level)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(opts.Input)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-sctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	count := 0
	for {
		select {
		case <-sctx.Done():
			logger.Info("capture interrupted", log.Int("lines", count))
			return nil
		case line, ok := <-lines:
			if !ok {
				var readErr error
				select {
				case readErr = <-scanErr:
				default:
				}
				if readErr != nil {
					return fmt.Errorf("capture: read input: %w", readErr)
				}
				logger.Info("capture finished", log.Int("lines", count))
				return nil
			}
			out.Print(line)
			count++
		}
	}
}
