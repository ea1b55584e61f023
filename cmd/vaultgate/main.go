// Command vaultgate is the client CLI: it creates and polls login approval requests, approves or
// declines them from a signed-in device and lists vault items.
package main

import (
	"github.com/turtacn/vaultgate/cmd/cli"
)

func main() {
	cli.Execute()
}
