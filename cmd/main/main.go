package main

import "github.com/Another0Noob/title-dedupe/cmd"

func main() {
	cmd.Execute()
}
