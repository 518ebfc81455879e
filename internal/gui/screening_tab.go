package gui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/jadehire-agent/internal/export"
	"github.com/fmuoria/jadehire-agent/internal/ingestion"
	"github.com/fmuoria/jadehire-agent/internal/models"
)

// openDocument shows a file picker limited to extractable documents
func (a *App) openDocument(onLoaded func(models.Document)) {
	d := dialog.NewFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		data, err := io.ReadAll(uc)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read %s: %w", uc.URI().Name(), err), a.mainWindow)
			return
		}
		onLoaded(ingestion.ReadDocument(uc.URI().Name(), data))
	}, a.mainWindow)
	d.SetFilter(storage.NewExtensionFileFilter(ingestion.SupportedExtensions))
	d.Show()
}

type screeningTab struct {
	app *App

	jobDescText   *widget.Entry
	resumeList    *widget.List
	processBtn    *widget.Button
	cancelBtn     *widget.Button
	progressBar   *widget.ProgressBar
	progressLabel *widget.Label
	resultsTable  *widget.Table
	exportBtn     *widget.Button

	resumes    []models.Document
	results    []models.MatchResult
	cancelFunc context.CancelFunc
}

func newScreeningTab(a *App) *screeningTab {
	return &screeningTab{app: a}
}

func (t *screeningTab) content() fyne.CanvasObject {
	t.jobDescText = widget.NewMultiLineEntry()
	t.jobDescText.SetPlaceHolder("Paste the job description or load it from a file...")
	t.jobDescText.SetMinRowsVisible(6)
	loadJDBtn := widget.NewButton("Load JD File...", func() {
		t.app.openDocument(func(doc models.Document) {
			t.jobDescText.SetText(doc.Text)
		})
	})

	t.resumeList = widget.NewList(
		func() int { return len(t.resumes) },
		func() fyne.CanvasObject { return widget.NewLabel("resume.pdf") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			doc := t.resumes[id]
			item.(*widget.Label).SetText(fmt.Sprintf("%s (%d characters)", doc.Name, len(doc.Text)))
		},
	)
	addResumeBtn := widget.NewButton("Add Resume...", func() {
		t.app.openDocument(func(doc models.Document) {
			t.resumes = append(t.resumes, doc)
			t.resumeList.Refresh()
		})
	})
	clearBtn := widget.NewButton("Clear", func() {
		t.resumes = nil
		t.resumeList.Refresh()
	})

	t.progressBar = widget.NewProgressBar()
	t.progressLabel = widget.NewLabel("Ready")
	t.processBtn = widget.NewButton("Screen Resumes", t.handleProcess)
	t.cancelBtn = widget.NewButton("Cancel", t.handleCancel)
	t.cancelBtn.Disable()

	t.resultsTable = widget.NewTable(
		func() (int, int) {
			return len(t.results) + 1, len(resultHeaders) // +1 for header
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				label.SetText(resultHeaders[id.Col])
				label.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			label.TextStyle = fyne.TextStyle{}
			if id.Row-1 < len(t.results) {
				label.SetText(resultCell(t.results[id.Row-1], id.Col))
			}
		},
	)
	t.resultsTable.SetColumnWidth(0, 60)
	t.resultsTable.SetColumnWidth(1, 220)
	t.resultsTable.SetColumnWidth(2, 80)
	t.resultsTable.SetColumnWidth(3, 520)

	t.exportBtn = widget.NewButton("Export to Excel", t.handleExport)
	t.exportBtn.Disable()

	inputs := container.NewVBox(
		widget.NewLabel("Job Description"),
		t.jobDescText,
		loadJDBtn,
		widget.NewSeparator(),
		container.NewHBox(widget.NewLabel("Resumes"), addResumeBtn, clearBtn),
	)
	progress := container.NewVBox(
		t.progressLabel,
		t.progressBar,
		container.NewHBox(t.processBtn, t.cancelBtn, t.exportBtn),
	)

	top := container.NewBorder(inputs, progress, nil, nil, t.resumeList)
	return container.NewVSplit(top, t.resultsTable)
}

// handleProcess screens every loaded resume in one model call
func (t *screeningTab) handleProcess() {
	if strings.TrimSpace(t.jobDescText.Text) == "" {
		dialog.ShowError(fmt.Errorf("please enter a job description"), t.app.mainWindow)
		return
	}
	if len(t.resumes) == 0 {
		dialog.ShowError(fmt.Errorf("please add at least one resume"), t.app.mainWindow)
		return
	}

	t.processBtn.Disable()
	t.cancelBtn.Enable()
	t.exportBtn.Disable()

	ctx, cancel := context.WithCancel(t.app.ctx)
	t.cancelFunc = cancel

	t.app.session.SetProgressCallback(func(current, total int, message string) {
		fyne.Do(func() {
			t.progressBar.SetValue(float64(current) / float64(total))
			t.progressLabel.SetText(message)
		})
	})

	jd := t.jobDescText.Text
	resumes := append([]models.Document(nil), t.resumes...)

	var report *models.ScreeningReport
	t.app.run("Screening...", func(context.Context) error {
		var err error
		report, err = t.app.session.Screen(ctx, jd, resumes)
		return err
	}, func(err error) {
		cancel()
		t.processBtn.Enable()
		t.cancelBtn.Disable()

		if err != nil {
			if ctx.Err() == context.Canceled {
				t.progressLabel.SetText("Screening canceled")
				return
			}
			t.progressLabel.SetText("Error: " + friendlyError(err))
			t.app.showError(err)
			return
		}

		t.results = report.Results
		t.resultsTable.Refresh()
		t.exportBtn.Enable()

		if !report.Structured && len(report.Results) == 0 {
			t.progressLabel.SetText("The model reply had no parseable candidates")
			return
		}
		t.progressLabel.SetText(fmt.Sprintf("Complete! Ranked %d candidates", len(t.results)))
	})
}

// handleCancel handles cancellation of screening
func (t *screeningTab) handleCancel() {
	if t.cancelFunc != nil {
		t.cancelFunc()
		t.progressLabel.SetText("Canceling...")
	}
}

// handleExport saves the ranking and its chart to a workbook
func (t *screeningTab) handleExport() {
	state, err := t.app.session.LastScreening()
	if err != nil {
		t.app.showError(err)
		return
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.app.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		outputPath := uc.URI().Path()
		if err := export.ExportScreeningToExcel(state.Report, state.JobDescription, outputPath); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export: %w", err), t.app.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Results exported successfully to "+filepath.Base(outputPath), t.app.mainWindow)
	}, t.app.mainWindow)
	d.SetFileName(fmt.Sprintf("JadeHire_Screening_%s.xlsx", timestamp))
	d.Show()
}

type standardizeTab struct {
	app *App

	sample, resume           models.Document
	sampleLabel, resumeLabel *widget.Label
	output                   *widget.Entry
	downloadSelect           *widget.Select
	saveBtn                  *widget.Button
}

func newStandardizeTab(a *App) *standardizeTab {
	return &standardizeTab{app: a}
}

func (t *standardizeTab) content() fyne.CanvasObject {
	t.sampleLabel = widget.NewLabel("No sample loaded")
	t.resumeLabel = widget.NewLabel("No resume loaded")

	sampleBtn := widget.NewButton("Load JadeHire Sample...", func() {
		t.app.openDocument(func(doc models.Document) {
			t.sample = doc
			t.sampleLabel.SetText(doc.Name)
		})
	})
	resumeBtn := widget.NewButton("Load Candidate Resume...", func() {
		t.app.openDocument(func(doc models.Document) {
			t.resume = doc
			t.resumeLabel.SetText(doc.Name)
		})
	})

	t.output = widget.NewMultiLineEntry()
	t.output.Wrapping = fyne.TextWrapWord
	t.output.SetPlaceHolder("The standardized resume appears here")

	t.downloadSelect = widget.NewSelect([]string{"docx", "pdf", "txt"}, nil)
	t.downloadSelect.SetSelected("docx")
	t.saveBtn = widget.NewButton("Save As...", t.handleSave)
	t.saveBtn.Disable()

	var runBtn *widget.Button
	runBtn = widget.NewButton("Standardize", func() {
		sample, resume := t.sample, t.resume
		runBtn.Disable()

		var text string
		t.app.run("Standardizing resume...", func(ctx context.Context) error {
			var err error
			text, err = t.app.session.Standardize(ctx, sample, resume)
			return err
		}, func(err error) {
			runBtn.Enable()
			if err != nil {
				t.app.showError(err)
				return
			}
			t.output.SetText(text)
			t.saveBtn.Enable()
		})
	})

	top := container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Sample format", container.NewBorder(nil, nil, nil, sampleBtn, t.sampleLabel)),
			widget.NewFormItem("Candidate resume", container.NewBorder(nil, nil, nil, resumeBtn, t.resumeLabel)),
		),
		runBtn,
	)
	bottom := container.NewHBox(widget.NewLabel("Download as"), t.downloadSelect, t.saveBtn)
	return container.NewBorder(top, bottom, nil, nil, t.output)
}

// handleSave writes the standardized text under the chosen download name
func (t *standardizeTab) handleSave() {
	downloads, err := t.app.session.StandardizedExports()
	if err != nil {
		t.app.showError(err)
		return
	}
	download, ok := export.Find(downloads, t.downloadSelect.Selected)
	if !ok {
		return
	}

	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.app.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		if _, err := uc.Write(download.Data); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save: %w", err), t.app.mainWindow)
			return
		}
		dialog.ShowInformation("Saved", download.FileName+" saved", t.app.mainWindow)
	}, t.app.mainWindow)
	d.SetFileName(download.FileName)
	d.Show()
}
