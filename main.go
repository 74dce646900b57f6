package main

import "github.com/timeR3/ToolCTV/cmd"

func main() {
	cmd.Execute()
}
