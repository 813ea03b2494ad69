package main

import "github.com/nikogura/notion-enum/cmd"

func main() {
	cmd.Execute()
}
