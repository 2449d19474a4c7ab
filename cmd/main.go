// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/boatmonitor/hub/internal/config"
	"github.com/boatmonitor/hub/internal/server"
	tm "github.com/buger/goterm"
	"github.com/joho/godotenv"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting Boat Monitor Hub v%s", nuts.GetVersion())

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		nuts.L.Warnf("[Main] Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ____              __     __  __      __  ",
		"   / __ )____  ____ _/ /_   / / / /_  __/ /_ ",
		"  / __  / __ \\/ __ `/ __/  / /_/ / / / / __ \\",
		" / /_/ / /_/ / /_/ / /_   / __  / /_/ / /_/ /",
		"/_____/\\____/\\__,_/\\__/  /_/ /_/\\__,_/_.___/ ",
		"..............................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
