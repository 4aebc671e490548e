package main

import "github.com/chrisdamba/dinesim/cmd"

func main() {
	cmd.Execute()
}
