package main

import "github.com/oshokin/scale-controller/cmd/scale-server/cmd"

func main() {
	cmd.Execute()
}
