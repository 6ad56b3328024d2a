package main

import "github.com/frahmantamala/org-chat/cmd"

func main() {
	cmd.Execute()
}
