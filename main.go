package main

import "github.com/nicklasfrahm/ncexec/cmd"

func main() {
	cmd.Execute()
}
