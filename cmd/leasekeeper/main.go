package main

import (
	"os"

	"github.com/leasekeeper/leasekeeper/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
