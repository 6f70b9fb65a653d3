package main

import "scan-reconciler/cmd"

func main() {
	cmd.Execute()
}
