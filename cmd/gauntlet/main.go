package main

import (
	"context"
	"os"

	"github.com/tungetti/gauntlet/internal/cli"
)

func main() {
	info := cli.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
	os.Exit(cli.Execute(context.Background(), info, os.Args[1:], os.Stdout, os.Stderr))
}
