package main

import "github.com/pders01/draftkeeper/cmd"

func main() {
	cmd.Execute()
}
