package main

import "clientdesk_backend/internal/app"

func main() {
	app.Run()
}
