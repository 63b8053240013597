package main

import (
	"context"
	"os"

	"github.com/guscambraia/aih-v3.5/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
