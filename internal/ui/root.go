package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tunegrab/tunegrab/internal/config"
	"github.com/tunegrab/tunegrab/internal/manager"
	"github.com/tunegrab/tunegrab/internal/model"
	"github.com/tunegrab/tunegrab/internal/platform"
)

// RootUI represents the main UI structure
type RootUI struct {
	app    fyne.App
	window fyne.Window

	urlEntry    *widget.Entry
	downloadBtn *widget.Button
	jobList     *widget.List
	statsLabel  *widget.Label
	logLabel    *widget.Label
	logScroll   *container.Scroll

	mgr          *manager.Manager
	settings     *config.Settings
	localization *Localization

	// jobs is the snapshot slice backing the list widget
	jobsMutex sync.Mutex
	jobs      []*model.Job
	lastSeen  map[string]model.JobStatus
	logLines  []string
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, mgr *manager.Manager, settings *config.Settings) *RootUI {
	localization := NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	ui := &RootUI{
		app:          app,
		window:       window,
		mgr:          mgr,
		settings:     settings,
		localization: localization,
		lastSeen:     make(map[string]model.JobStatus),
	}

	window.SetTitle(localization.GetText(KeyAppTitle))

	mgr.SetUpdateCallback(ui.onJobUpdate)
	mgr.SetLogCallback(ui.onLogLine)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.urlEntry = widget.NewMultiLineEntry()
	ui.urlEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterURLs))
	ui.urlEntry.SetMinRowsVisible(3)

	ui.downloadBtn = widget.NewButton(ui.localization.GetText(KeyDownload), ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	cancelAllBtn := widget.NewButton(ui.localization.GetText(KeyCancelAll), func() {
		ui.mgr.CancelAll()
	})
	clearBtn := widget.NewButton(ui.localization.GetText(KeyClearFinished), func() {
		ui.mgr.ClearFinished()
		ui.refreshJobs()
	})
	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	buttonRow := container.NewHBox(ui.downloadBtn, cancelAllBtn, clearBtn, settingsBtn)
	topPanel := container.NewVBox(ui.urlEntry, buttonRow)

	ui.jobList = widget.NewList(
		func() int {
			ui.jobsMutex.Lock()
			defer ui.jobsMutex.Unlock()
			return len(ui.jobs)
		},
		func() fyne.CanvasObject { return ui.createJobItem() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { ui.updateJobItem(id, obj) },
	)

	ui.statsLabel = widget.NewLabel("")
	ui.statsLabel.TextStyle = fyne.TextStyle{Monospace: true}

	ui.logLabel = widget.NewLabel("")
	ui.logLabel.TextStyle = fyne.TextStyle{Monospace: true}
	ui.logLabel.Wrapping = fyne.TextWrapWord
	ui.logScroll = container.NewVScroll(ui.logLabel)
	ui.logScroll.SetMinSize(fyne.NewSize(0, LogPanelHeight))

	bottomPanel := container.NewVBox(ui.statsLabel, widget.NewSeparator(), ui.logScroll)

	content := container.NewBorder(
		topPanel,    // top
		bottomPanel, // bottom
		nil,         // left
		nil,         // right
		ui.jobList,  // center
	)
	ui.window.SetContent(content)

	ui.refreshStats()
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem(ui.localization.GetText(KeySettings), ui.onShowSettings)

	languageMenu := fyne.NewMenu(ui.localization.GetText(KeyLanguage))
	for code, name := range ui.localization.GetAvailableLanguages() {
		langCode := code // Capture for closure
		langItem := fyne.NewMenuItem(name, func() {
			ui.onLanguageChange(langCode)
		})
		if ui.localization.GetCurrentLanguage() == code {
			langItem.Checked = true
		}
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu(ui.localization.GetText(KeyFile), settingsItem),
		languageMenu,
	)
	ui.window.SetMainMenu(mainMenu)
}

// onLanguageChange handles language change
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)
	ui.refreshUITexts()
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.localization.GetText(KeyAppTitle))
	ui.urlEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterURLs))
	ui.downloadBtn.SetText(ui.localization.GetText(KeyDownload))
	ui.jobList.Refresh()
}

// onDownloadClick submits every URL found in the entry text
func (ui *RootUI) onDownloadClick() {
	text := strings.TrimSpace(ui.urlEntry.Text)
	if text == "" {
		ui.showPopup(ui.localization.GetText(KeyPleaseEnterURL))
		return
	}

	jobs, err := ui.mgr.SubmitText(text)
	if err != nil {
		switch {
		case errors.Is(err, manager.ErrNoValidURLs):
			ui.showPopup(ui.localization.GetText(KeyInvalidURL))
		case errors.Is(err, manager.ErrDuplicateURL):
			ui.showPopup(ui.localization.GetText(KeyAlreadyInQueue))
		default:
			ui.showPopup("Error: " + err.Error())
		}
		return
	}

	ui.urlEntry.SetText("")
	ui.refreshJobs()
	ui.showPopup(fmt.Sprintf("%s (%d)", ui.localization.GetText(KeyJobsAdded), len(jobs)))
}

// showPopup shows a transient message over the window canvas
func (ui *RootUI) showPopup(message string) {
	widget.ShowPopUp(widget.NewLabel(message), ui.window.Canvas())
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.settings, ui.localization, func() {
		// Apply pool size immediately, new downloads pick up the rest
		ui.mgr.SetMaxConcurrent(ui.settings.GetMaxConcurrent())
	})
}

// createJobItem creates a new job row widget for the list
func (ui *RootUI) createJobItem() fyne.CanvasObject {
	row := NewJobRow(nil, ui.localization)
	row.SetCallbacks(ui.onCancelJob, ui.onRevealFile, ui.onPlayFile)
	return row
}

// updateJobItem binds the row widget at a list position to its job
func (ui *RootUI) updateJobItem(id widget.ListItemID, item fyne.CanvasObject) {
	ui.jobsMutex.Lock()
	if id >= len(ui.jobs) {
		ui.jobsMutex.Unlock()
		return
	}
	job := ui.jobs[id]
	ui.jobsMutex.Unlock()

	if row, ok := item.(*JobRow); ok {
		row.SetCallbacks(ui.onCancelJob, ui.onRevealFile, ui.onPlayFile)
		row.UpdateJob(job)
	}
}

// onCancelJob handles the cancel button on a row
func (ui *RootUI) onCancelJob(jobID string) {
	if err := ui.mgr.Cancel(jobID); err != nil {
		log.Printf("cancel %s: %v", jobID, err)
	}
}

// onRevealFile shows a finished file in the system file manager
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.OpenFileInManager(filePath); err != nil {
		log.Printf("reveal %s: %v", filePath, err)
		ui.showPopup(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

// onPlayFile opens a finished file with the default application
func (ui *RootUI) onPlayFile(filePath string) {
	if err := platform.OpenFileWithDefaultApp(filePath); err != nil {
		log.Printf("open %s: %v", filePath, err)
		ui.showPopup(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

// onJobUpdate handles job snapshots arriving from the manager. It runs on
// a worker goroutine, so all widget access goes through fyne.Do.
func (ui *RootUI) onJobUpdate(job *model.Job) {
	completed := false
	ui.jobsMutex.Lock()
	if ui.lastSeen[job.ID] != model.JobStatusCompleted && job.Status == model.JobStatusCompleted {
		completed = true
	}
	ui.lastSeen[job.ID] = job.Status
	ui.jobsMutex.Unlock()

	if completed && ui.settings.GetNotifyOnComplete() {
		ui.app.SendNotification(fyne.NewNotification(
			ui.localization.GetText(KeyDownloadComplete),
			job.DisplayTitle(),
		))
	}

	ui.refreshJobs()
}

// onLogLine appends a manager log line to the log panel
func (ui *RootUI) onLogLine(line string) {
	ui.jobsMutex.Lock()
	ui.logLines = append(ui.logLines, line)
	if len(ui.logLines) > MaxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-MaxLogLines:]
	}
	text := strings.Join(ui.logLines, "\n")
	ui.jobsMutex.Unlock()

	fyne.Do(func() {
		ui.logLabel.SetText(text)
		if ui.settings.GetAutoScrollLogs() {
			ui.logScroll.ScrollToBottom()
		}
	})
}

// refreshJobs reloads the job snapshots and refreshes the list and stats
func (ui *RootUI) refreshJobs() {
	jobs := ui.mgr.Jobs()

	ui.jobsMutex.Lock()
	ui.jobs = jobs
	ui.jobsMutex.Unlock()

	fyne.Do(func() {
		ui.jobList.Refresh()
		ui.refreshStats()
	})
}

// refreshStats updates the stats bar from the manager counters
func (ui *RootUI) refreshStats() {
	stats := ui.mgr.Stats()
	ui.statsLabel.SetText(fmt.Sprintf(StatsBarFormat,
		stats.Total, stats.Active, stats.Queued, stats.Completed, stats.Failed))
}
