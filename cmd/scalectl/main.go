package main

import "github.com/oshokin/scale-controller/cmd/scalectl/cmd"

func main() {
	cmd.Execute()
}
