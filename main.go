// Package main is the entry point of the inventory catalog service.
package main

import (
	"fmt"
	"os"

	"github.com/mgwoorl/design-patterns-galiulina/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
