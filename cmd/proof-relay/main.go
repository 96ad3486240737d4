package main

import (
	"github.com/onflow/proof-relay/cmd/proof-relay/cmd"
)

func main() {
	cmd.Execute()
}
