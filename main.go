package main

import (
	"github.com/LumeraProtocol/notary/notary/cmd"
)

func main() {
	cmd.Execute()
}
