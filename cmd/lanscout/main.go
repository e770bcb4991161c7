package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/gologger"

	"github.com/lanscout/lanscout/internal/runner"
)

func main() {
	options := runner.ParseOptions()

	lanscoutRunner, err := runner.NewRunner(options)
	if err != nil {
		gologger.Fatal().Msgf("Could not create runner: %s\n", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup close handler
	go func() {
		<-c
		fmt.Println("\r- Ctrl+C pressed in Terminal, Exiting...")
		cancel()
	}()

	if err := lanscoutRunner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		gologger.Fatal().Msgf("Could not run lanscout: %s\n", err)
	}
}
