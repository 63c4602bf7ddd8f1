package main

import (
	"os"

	"github.com/scan-io-git/ansible-later/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
