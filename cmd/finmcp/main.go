// Command finmcp serves market data and technical analysis tools over MCP.
package main

import (
	"context"
	"fmt"
	"os"

	"finmcp/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
