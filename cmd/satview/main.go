package main

import "satview/cmd/satview/cmd"

func main() {
	cmd.Execute()
}
