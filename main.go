package main

import "github.com/producex-ai/axiom-sub001/cmd"

func main() {
	cmd.Execute()
}
