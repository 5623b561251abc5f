package main

import (
	"log"

	"github.com/MrSnakeDoc/opphub/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ opphub stopped with error: %v", err)
	}
}
