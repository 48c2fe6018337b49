package main

import (
	"github.com/frahmantamala/document-workspace/cmd"
)

func main() {
	cmd.Execute()
}
