package main

import "github.com/oshokin/scale-controller/cmd/scale-handler/cmd"

func main() {
	cmd.Execute()
}
