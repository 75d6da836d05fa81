package main

import (
	"github.com/taurusgroup/kzg-ceremony/cmd/ceremony/cmd"
)

func main() {
	cmd.Execute()
}
