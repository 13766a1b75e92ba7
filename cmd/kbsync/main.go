// Command kbsync keeps a vector knowledge base in sync with a watched folder.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/kbsync/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
