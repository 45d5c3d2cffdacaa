package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/tunegrab/tunegrab/internal/config"
	"github.com/tunegrab/tunegrab/internal/convert"
	"github.com/tunegrab/tunegrab/internal/download"
	"github.com/tunegrab/tunegrab/internal/manager"
	"github.com/tunegrab/tunegrab/internal/platform"
	"github.com/tunegrab/tunegrab/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.tunegrab.tunegrab"
	AppName = "TuneGrab"
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	myApp := app.NewWithID(AppID)

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(ui.WindowWidth, ui.WindowHeight))

	// Initialize services
	settings := config.NewSettings(myApp)
	downloadDir := settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(downloadDir); err != nil {
		fmt.Printf("failed to ensure download dir: %v\n", err)
	}

	converter := convert.NewFFmpegConverter("")
	converter.SetBitrate(settings.GetAudioBitrate())
	fetcher := download.NewYTDLPFetcher()

	cfg := manager.DefaultConfig(downloadDir)
	cfg.MaxConcurrent = settings.GetMaxConcurrent()
	cfg.PhaseTimeout = time.Duration(settings.GetPhaseTimeoutMinutes()) * time.Minute
	mgr := manager.New(cfg, fetcher, converter)
	defer mgr.Close()

	// Create and setup UI
	ui.NewRootUI(myWindow, myApp, mgr, settings)

	// Show and run
	myWindow.ShowAndRun()
}
