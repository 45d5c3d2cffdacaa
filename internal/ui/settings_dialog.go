package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tunegrab/tunegrab/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	window       fyne.Window
	localization *Localization
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	// UI components
	downloadDirEntry   *widget.Entry
	maxConcurrentEntry *widget.Entry
	bitrateSelect      *widget.Select
	languageSelect     *widget.Select
	notifyCheck        *widget.Check
	autoScrollCheck    *widget.Check
}

// ShowSettingsDialog creates and shows the settings dialog. onSaved is
// called after a confirmed save.
func ShowSettingsDialog(window fyne.Window, settings *config.Settings, localization *Localization, onSaved func()) {
	sd := &SettingsDialog{
		settings:     settings,
		window:       window,
		localization: localization,
		onSaved:      onSaved,
	}

	sd.createUI()
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")

	browseDirBtn := widget.NewButton(sd.localization.GetText(KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Worker pool size
	sd.maxConcurrentEntry = widget.NewEntry()
	sd.maxConcurrentEntry.SetPlaceHolder("1-10")

	// MP3 bitrate selection
	bitrateOptions := []string{}
	for _, kbps := range sd.settings.GetAudioBitrateOptions() {
		bitrateOptions = append(bitrateOptions, strconv.Itoa(kbps))
	}
	sd.bitrateSelect = widget.NewSelect(bitrateOptions, nil)

	// Language selection
	languageOptions := []string{}
	for code := range sd.settings.GetLanguageOptions() {
		languageOptions = append(languageOptions, code)
	}
	sd.languageSelect = widget.NewSelect(languageOptions, nil)
	sd.languageSelect.PlaceHolder = "Select language"

	sd.notifyCheck = widget.NewCheck(sd.localization.GetText(KeyNotifyOnComplete), nil)
	sd.autoScrollCheck = widget.NewCheck(sd.localization.GetText(KeyAutoScrollLogs), nil)

	form := container.NewVBox(
		widget.NewLabel(sd.localization.GetText(KeyDownloadDirectory)+":"),
		downloadDirRow,

		widget.NewLabel(sd.localization.GetText(KeyMaxConcurrent)+":"),
		sd.maxConcurrentEntry,

		widget.NewLabel(sd.localization.GetText(KeyAudioBitrate)+":"),
		sd.bitrateSelect,

		widget.NewSeparator(),

		widget.NewLabel(sd.localization.GetText(KeyLanguage)+":"),
		sd.languageSelect,

		sd.notifyCheck,
		sd.autoScrollCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		sd.localization.GetText(KeySettings),
		sd.localization.GetText(KeySave),
		sd.localization.GetText(KeyCancel),
		form,
		sd.onSave,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.maxConcurrentEntry.SetText(strconv.Itoa(sd.settings.GetMaxConcurrent()))
	sd.bitrateSelect.SetSelected(strconv.Itoa(sd.settings.GetAudioBitrate()))
	sd.languageSelect.SetSelected(sd.settings.GetLanguage())
	sd.notifyCheck.SetChecked(sd.settings.GetNotifyOnComplete())
	sd.autoScrollCheck.SetChecked(sd.settings.GetAutoScrollLogs())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := sd.downloadDirEntry.Text; dir != "" {
		sd.settings.SetDownloadDirectory(dir)
	}

	if text := sd.maxConcurrentEntry.Text; text != "" {
		if count, err := strconv.Atoi(text); err == nil {
			sd.settings.SetMaxConcurrent(count)
		}
	}

	if sd.bitrateSelect.Selected != "" {
		if kbps, err := strconv.Atoi(sd.bitrateSelect.Selected); err == nil {
			sd.settings.SetAudioBitrate(kbps)
		}
	}

	if sd.languageSelect.Selected != "" {
		sd.settings.SetLanguage(sd.languageSelect.Selected)
	}

	sd.settings.SetNotifyOnComplete(sd.notifyCheck.Checked)
	sd.settings.SetAutoScrollLogs(sd.autoScrollCheck.Checked)

	dialog.ShowInformation(
		sd.localization.GetText(KeySettings),
		sd.localization.GetText(KeySettingsSaved),
		sd.window,
	)
	if sd.onSaved != nil {
		sd.onSaved()
	}
}
