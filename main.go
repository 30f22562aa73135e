package main

import "github.com/mj1618/desktop-pilot/cmd"

func main() {
	cmd.Execute()
}
