package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/cli"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/tui"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/version"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/workflow"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := cli.Parse(args)
	if err != nil {
		printErr(nil, err)
		cli.PrintHelp()
		return cli.ExitFailure
	}

	if opts.Help {
		cli.PrintHelp()
		return cli.ExitSuccess
	}

	if opts.VersionOnly {
		fmt.Printf("trojanup v%s\n", version.AppVersion)
		return cli.ExitSuccess
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	deps := workflow.NewDeps(logger)
	ctx := context.Background()

	if opts.Action != "" {
		runner := &cli.Runner{Deps: deps, Out: os.Stdout}
		code, err := runner.Run(ctx, opts)
		if err != nil {
			printErr(logger, err)
		}
		return code
	}

	if !isTerminalFile(os.Stdin) || !isTerminalFile(os.Stdout) {
		printErr(logger, errors.New("no command given and not on a terminal. use install or change-port"))
		cli.PrintHelp()
		return cli.ExitFailure
	}

	params, err := tui.InstallForm()
	if err != nil {
		if errors.Is(err, tui.ErrCancelled) {
			return cli.ExitSuccess
		}
		printErr(logger, err)
		return cli.ExitFailure
	}

	res, err := workflow.Install(ctx, deps, params)
	if err != nil {
		printErr(logger, err)
		return cli.ExitFailure
	}
	cli.PrintInstallResult(os.Stdout, res)
	return cli.ExitSuccess
}

func printErr(logger *log.Logger, err error) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "trojanup: error: %v\n", err)
		return
	}
	logger.Error(err.Error())
	var hinted *workflow.HintError
	if errors.As(err, &hinted) {
		for _, hint := range hinted.Hints {
			logger.Warn(hint)
		}
	}
}

func isTerminalFile(f *os.File) bool {
	fd := f.Fd()
	// Guard against uintptr->int overflow (paranoia, but keeps scanners quiet).
	if fd > uintptr(^uint(0)>>1) {
		return false
	}
	return term.IsTerminal(int(fd))
}
