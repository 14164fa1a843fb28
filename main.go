package main

import (
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/app/cmd"
)

// @title WhatsApp Session Manager API
// @version 1.0
// @description Multi-tenant WhatsApp session lifecycle manager with trigger automation.

// @host  localhost:8000
// @BasePath /api/v1

func main() {
	cmd.StartApp()
}
