package main

import (
	"os"

	"github.com/goliatone/go-blog/cmd/blog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
