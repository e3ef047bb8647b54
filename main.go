package main

import "github.com/sambabib/portability-analyzer/cmd"

func main() {
	cmd.Execute()
}
