package main

import "github.com/example/katasensei/cmd"

func main() {
	cmd.Execute()
}
