package main

import (
	"github.com/ProjectsTask/EasySwapAgent/cmd"
)

func main() {
	cmd.Execute()
}
