package main

import (
	"context"
	"os"
	"path"

	"github.com/mmynk/splitledger/internal/cli"
)

func main() {
	os.Exit(int(cli.Main(context.Background(), path.Base(os.Args[0]), os.Args[1:], os.Stdout, os.Stderr)))
}
