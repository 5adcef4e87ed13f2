package main

import (
	"flag"
	"fmt"
	"os"

	"compliance-feed/cmd/statusui/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:9200", "backend base URL")
	flag.Parse()

	p := tea.NewProgram(ui.NewRootModel(ui.NewClient(*baseURL)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "statusui:", err)
		os.Exit(1)
	}
}
