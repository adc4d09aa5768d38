package main

import "github.com/pders01/visionqa/cmd"

func main() {
	cmd.Execute()
}
