package main

//go:generate swag init -g cmd/gateway/main.go -o docs

// @title           InsiderWatch API
// @version         0.1.0
// @description     Insider-activity detection for prediction markets: wallet analysis, market scans, signals, and wallet classification.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
