package main

import "github.com/goplus/linkplan/cmd/linkplan/internal"

func main() {
	internal.Execute()
}
