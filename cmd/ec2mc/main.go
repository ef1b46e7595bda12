// ec2mc manages a namespace of EC2 game servers and the AWS setup they
// depend on.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/oklog/run"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}

// execute runs the command line next to a signal handler. The first actor
// to return interrupts the other.
func execute(ctx context.Context, args []string) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	root := newRootCmd()
	root.SetArgs(args)

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		return root.ExecuteContext(ctx)
	}, func(error) {
		cancel()
	})

	err := g.Run()
	if err == nil {
		return 0
	}

	var sig run.SignalError
	if errors.As(err, &sig) {
		fmt.Fprintf(os.Stderr, "interrupted by %s\n", sig.Signal)
		return 130
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
