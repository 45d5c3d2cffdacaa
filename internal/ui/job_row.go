package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tunegrab/tunegrab/internal/model"
)

// File size formatting constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"
)

// formatFileSize formats file size in bytes to human readable format
func formatFileSize(bytes int64) string {
	if bytes < FileSizeUnit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(FileSizeUnit), 0
	for n := bytes / FileSizeUnit; n >= FileSizeUnit; n /= FileSizeUnit {
		div *= FileSizeUnit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), FileSizeUnits[exp])
}

// JobRow is a compact row widget showing one conversion job
type JobRow struct {
	widget.BaseWidget

	job          *model.Job
	localization *Localization

	// UI components
	titleLabel    *widget.Label
	statusLabel   *widget.Label
	speedEtaLabel *widget.Label
	progressBar   *widget.ProgressBar

	// Action buttons
	cancelBtn *widget.Button
	revealBtn *widget.Button
	playBtn   *widget.Button

	// Callbacks
	onCancel func(jobID string)
	onReveal func(filePath string)
	onPlay   func(filePath string)
}

// NewJobRow creates a new job row widget
func NewJobRow(job *model.Job, localization *Localization) *JobRow {
	if job == nil {
		job = &model.Job{ID: "placeholder", Status: model.JobStatusQueued}
	}

	jr := &JobRow{
		job:          job,
		localization: localization,
	}
	jr.ExtendBaseWidget(jr)
	jr.createUI()
	jr.updateFromJob()
	return jr
}

// SetCallbacks sets the action callbacks
func (jr *JobRow) SetCallbacks(
	onCancel func(jobID string),
	onReveal func(filePath string),
	onPlay func(filePath string),
) {
	jr.onCancel = onCancel
	jr.onReveal = onReveal
	jr.onPlay = onPlay
}

// UpdateJob updates the row with new job data
func (jr *JobRow) UpdateJob(job *model.Job) {
	if job == nil {
		return
	}
	jr.job = job
	jr.updateFromJob()
	jr.Refresh()
}

// createUI creates the UI components
func (jr *JobRow) createUI() {
	jr.titleLabel = widget.NewLabel("")
	jr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	jr.titleLabel.Truncation = fyne.TextTruncateEllipsis
	jr.titleLabel.Alignment = fyne.TextAlignLeading

	jr.statusLabel = widget.NewLabel("")
	jr.statusLabel.Alignment = fyne.TextAlignTrailing

	jr.speedEtaLabel = widget.NewLabel("")
	jr.speedEtaLabel.Alignment = fyne.TextAlignLeading
	jr.speedEtaLabel.TextStyle = fyne.TextStyle{Monospace: true}

	jr.progressBar = widget.NewProgressBar()

	jr.cancelBtn = widget.NewButton(jr.localization.GetText(KeyCancel), func() {
		if jr.onCancel != nil {
			jr.onCancel(jr.job.ID)
		}
	})
	jr.cancelBtn.Importance = widget.MediumImportance

	jr.revealBtn = widget.NewButton(jr.localization.GetText(KeyReveal), func() {
		if jr.onReveal != nil && jr.hasOutputFile() {
			jr.onReveal(jr.job.OutputPath)
		}
	})
	jr.revealBtn.Importance = widget.MediumImportance

	jr.playBtn = widget.NewButton(jr.localization.GetText(KeyPlay), func() {
		if jr.onPlay != nil && jr.hasOutputFile() {
			jr.onPlay(jr.job.OutputPath)
		}
	})
	jr.playBtn.Importance = widget.MediumImportance
}

// hasOutputFile reports whether the job has a usable output path
func (jr *JobRow) hasOutputFile() bool {
	path := jr.job.OutputPath
	return path != "" && !strings.HasPrefix(path, "http") &&
		(strings.Contains(path, "/") || strings.Contains(path, "\\"))
}

// updateFromJob updates UI components based on job state
func (jr *JobRow) updateFromJob() {
	title := strings.Join(strings.Fields(jr.job.DisplayTitle()), " ")
	jr.titleLabel.SetText(title)

	switch jr.job.Status {
	case model.JobStatusFailed:
		jr.statusLabel.Importance = widget.DangerImportance
		jr.statusLabel.SetText(IconError + " " + jr.job.Status.String())
	case model.JobStatusCompleted:
		jr.statusLabel.Importance = widget.SuccessImportance
		jr.statusLabel.SetText(jr.job.Status.String())
	case model.JobStatusDownloading:
		jr.statusLabel.Importance = widget.HighImportance
		jr.statusLabel.SetText(IconPlay + " " + jr.job.Status.String())
	case model.JobStatusConverting:
		jr.statusLabel.Importance = widget.HighImportance
		jr.statusLabel.SetText(IconMusic + " " + jr.job.Status.String())
	case model.JobStatusQueued:
		jr.statusLabel.Importance = widget.MediumImportance
		jr.statusLabel.SetText(IconQueued + " " + jr.job.Status.String())
	case model.JobStatusCancelled:
		jr.statusLabel.Importance = widget.MediumImportance
		jr.statusLabel.SetText(IconCancel + " " + jr.job.Status.String())
	default:
		jr.statusLabel.Importance = widget.MediumImportance
		jr.statusLabel.SetText(jr.job.Status.String())
	}

	jr.progressBar.SetValue(jr.job.Progress)

	jr.speedEtaLabel.SetText(jr.detailText())
	jr.updateButtons()
}

// detailText builds the secondary line under the title
func (jr *JobRow) detailText() string {
	switch jr.job.Status {
	case model.JobStatusDownloading:
		text := ""
		if jr.job.Speed != "" {
			text = jr.job.Speed
		}
		if eta := jr.job.ETAString(); eta != "" {
			if text != "" {
				text += MiddleDotSeparator
			}
			text += eta
		}
		if text == "" {
			text = DashPlaceholder
		}
		return text + MiddleDotSeparator + fmt.Sprintf(ProgressLabelFormat, jr.job.Percent())
	case model.JobStatusConverting:
		return fmt.Sprintf(ProgressLabelFormat, jr.job.Percent())
	case model.JobStatusCompleted:
		if jr.job.FileSize > 0 {
			return formatFileSize(jr.job.FileSize)
		}
		return ""
	case model.JobStatusFailed:
		return jr.job.LastError
	default:
		return ""
	}
}

// updateButtons updates button states based on job status
func (jr *JobRow) updateButtons() {
	if jr.job.Status.IsTerminal() {
		jr.cancelBtn.Disable()
	} else {
		jr.cancelBtn.Enable()
	}

	if jr.job.Status == model.JobStatusCompleted && jr.hasOutputFile() {
		jr.revealBtn.Enable()
		jr.playBtn.Enable()
	} else {
		jr.revealBtn.Disable()
		jr.playBtn.Disable()
	}
}

// CreateRenderer creates the widget renderer
func (jr *JobRow) CreateRenderer() fyne.WidgetRenderer {
	return &jobRowRenderer{jobRow: jr}
}

// jobRowRenderer renders the job row widget
type jobRowRenderer struct {
	jobRow *JobRow
	layout *fyne.Container
}

// Layout arranges the components
func (r *jobRowRenderer) Layout(size fyne.Size) {
	if r.layout == nil {
		r.createLayout()
	}
	if size.Width < RowMinWidth {
		size.Width = RowMinWidth
	}
	r.layout.Resize(size)
}

// MinSize returns the minimum size
func (r *jobRowRenderer) MinSize() fyne.Size {
	if r.layout != nil {
		return r.layout.MinSize()
	}
	return fyne.NewSize(RowMinWidth, RowMinHeight)
}

// Refresh refreshes the renderer
func (r *jobRowRenderer) Refresh() {
	if r.layout == nil {
		r.createLayout()
	}
	r.layout.Refresh()
}

// Objects returns the container objects
func (r *jobRowRenderer) Objects() []fyne.CanvasObject {
	if r.layout == nil {
		r.createLayout()
	}
	return []fyne.CanvasObject{r.layout}
}

// Destroy cleans up the renderer
func (r *jobRowRenderer) Destroy() {}

// createLayout creates the main layout
func (r *jobRowRenderer) createLayout() {
	jr := r.jobRow

	// Fix label widths using a transparent rectangle underneath
	fixedWidth := func(w float32, obj fyne.CanvasObject) fyne.CanvasObject {
		spacer := canvas.NewRectangle(color.RGBA{0, 0, 0, 0})
		spacer.SetMinSize(fyne.NewSize(w, obj.MinSize().Height))
		return container.NewStack(spacer, obj)
	}

	actionRow := container.NewHBox(
		jr.cancelBtn,
		jr.revealBtn,
		jr.playBtn,
	)

	rightCluster := container.NewBorder(nil, nil, nil, actionRow,
		container.NewVBox(
			fixedWidth(StatusLabelWidth, jr.statusLabel),
			fixedWidth(SpeedLabelWidth, jr.speedEtaLabel),
		),
	)

	// Title expands on the left, the info block and buttons stay pinned right
	topRow := container.NewBorder(nil, nil, nil, rightCluster, jr.titleLabel)

	r.layout = container.NewVBox(
		topRow,
		jr.progressBar,
		widget.NewSeparator(),
	)
}
