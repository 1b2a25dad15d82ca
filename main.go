package main

import "github.com/iksnae/wakechat/cmd"

func main() {
	cmd.Execute()
}
