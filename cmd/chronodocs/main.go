package main

import "chronodocs/cmd/chronodocs/cmd"

func main() {
	cmd.Execute()
}
