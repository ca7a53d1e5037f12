package main

import (
	"log"

	"github.com/linkman-app/linkman/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ linkman failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ linkman exited with error: %v", err)
	}
}
