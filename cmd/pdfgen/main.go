// Command pdfgen renders JSON as paginated PDF tables and serves the form
// template API.
//
// Usage:
//
//	pdfgen serve                      start the HTTP API
//	pdfgen convert in.json -o out.pdf render a {data, options} file
//	pdfgen inspect in.json            print the table pages in the terminal
//	pdfgen mcp                        run the MCP tool server on stdio
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
