// Command drops is offline operator tooling for installment subscription
// documents. It reads a subscription as JSON, applies one lifecycle step and
// writes the result.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(loadConfig(), os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
