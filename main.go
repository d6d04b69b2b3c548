package main

import "github.com/bekzodm/dilbot/cmd"

func main() {
	cmd.Execute()
}
