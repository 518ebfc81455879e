package gui

import (
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/jadehire-agent/internal/export"
)

type usageTab struct {
	app *App

	calls, input, output, total *widget.Label
}

func newUsageTab(a *App) *usageTab {
	return &usageTab{
		app:    a,
		calls:  widget.NewLabel("0"),
		input:  widget.NewLabel("0"),
		output: widget.NewLabel("0"),
		total:  widget.NewLabel("0"),
	}
}

func (t *usageTab) content() fyne.CanvasObject {
	exportBtn := widget.NewButton("Export to Excel", func() {
		snap := t.app.session.Usage()
		at := time.Now().In(t.app.location)

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
			if err := export.ExportUsageToExcel(snap, at, outputPath); err != nil {
				dialog.ShowError(fmt.Errorf("failed to export: %w", err), t.app.mainWindow)
				return
			}
			dialog.ShowInformation("Success", "Usage exported to "+filepath.Base(outputPath), t.app.mainWindow)
		}, t.app.mainWindow)
		d.SetFileName(fmt.Sprintf("JadeHire_Usage_%s.xlsx", at.Format("2006-01-02_150405")))
		d.Show()
	})

	return container.NewVBox(
		widget.NewLabel("Approximate token counts are whitespace-separated words."),
		widget.NewForm(
			widget.NewFormItem("LLM calls", t.calls),
			widget.NewFormItem("Input tokens", t.input),
			widget.NewFormItem("Output tokens", t.output),
			widget.NewFormItem("Total tokens", t.total),
		),
		container.NewHBox(widget.NewButton("Refresh", t.refresh), exportBtn),
	)
}

// refresh reads the session counters; callers are on the UI thread
func (t *usageTab) refresh() {
	if t.app.session == nil {
		return
	}
	snap := t.app.session.Usage()
	t.calls.SetText(fmt.Sprintf("%d", snap.Calls))
	t.input.SetText(fmt.Sprintf("%d", snap.InputTokens))
	t.output.SetText(fmt.Sprintf("%d", snap.OutputTokens))
	t.total.SetText(fmt.Sprintf("%d", snap.TotalTokens))
}
