// Command docserver is the documentation retrieval service: an offline
// indexing pipeline and an online MCP HTTP server over the same product
// configuration.
package main

import "github.com/docsearch-mcp/docserver/cmd/docserver/cli"

func main() {
	cli.Execute()
}
