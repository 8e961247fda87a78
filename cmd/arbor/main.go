// Command arbor edits a collection of tree documents kept in a single JSON or
// YAML blob, stored in a local file or a DynamoDB item.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
