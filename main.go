package main

import "github.com/kfreiman/docbridge/cmd"

func main() {
	cmd.Execute()
}
