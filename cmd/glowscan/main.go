// Package main provides the glowscan command line client.
//
// It runs the same extract, analyze and export flow as the Telegram bot
// against a GlowScan service, printing to the terminal.
//
// Usage:
//
//	glowscan scan label.jpg --pdf report.pdf
//	echo "Aqua, Glycerin" | glowscan analyze --type serum
package main

func main() {
	Execute()
}
