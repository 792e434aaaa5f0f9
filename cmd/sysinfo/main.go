// Command sysinfo collects the system report once and prints it to stdout.
// It exits with status 1 if the encoded response is not a 200.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/conqp/digsigctl/pkg/config"
	"github.com/conqp/digsigctl/pkg/response"
	"github.com/conqp/digsigctl/pkg/result"
	"github.com/conqp/digsigctl/pkg/server"
	"github.com/conqp/digsigctl/pkg/sysinfo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "sysinfo: %v\n", err)
	}
	os.Exit(code)
}

// run returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) (int, error) {
	fs := pflag.NewFlagSet("sysinfo", pflag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	format := fs.StringP("format", "f", "json", "output format (json or cbor)")
	probeName := fs.StringP("probe", "p", "", "run only this probe")
	partial := fs.Bool("partial", false, "print the partial report even if probes failed")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, err
		}
		return 2, err
	}

	codec, ok := response.ByName(*format)
	if !ok {
		return 2, fmt.Errorf("unknown format %q", *format)
	}

	cfg, err := flags.Load()
	if err != nil {
		return 2, err
	}
	logger, closer, err := cfg.NewLogger()
	if err != nil {
		return 2, err
	}
	defer closer.Close()

	outcome, err := collect(ctx, cfg, logger, *probeName, *partial)
	if err != nil {
		return 1, err
	}

	resp := response.Encode(outcome, codec)
	if _, err := stdout.Write(resp.Body); err != nil {
		return 1, fmt.Errorf("failed to write output: %w", err)
	}
	if resp.Status != result.StatusOK {
		return 1, nil
	}
	return 0, nil
}

func collect(ctx context.Context, cfg *config.Config, logger *logrus.Logger, name string, partial bool) (result.Outcome, error) {
	opts, err := server.AssemblerOptions(cfg)
	if err != nil {
		return result.Outcome{}, err
	}
	opts = append(opts, sysinfo.WithStatfs(sysinfo.Statfs))

	assembler, err := sysinfo.NewAssembler(server.HostFromConfig(cfg), logger, opts...)
	if err != nil {
		return result.Outcome{}, err
	}

	if name != "" {
		outcome, ok := assembler.Run(ctx, name)
		if !ok {
			return result.Failure(result.NotFound(name, fmt.Errorf("no such probe"))), nil
		}
		return outcome, nil
	}

	report, outcome := assembler.Collect(ctx)
	if partial {
		return result.Success(report), nil
	}
	return outcome, nil
}
