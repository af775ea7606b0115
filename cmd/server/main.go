package main

import "github.com/eleven-am/realtime-client/internal/bootstrap"

func main() {
	bootstrap.Run()
}
