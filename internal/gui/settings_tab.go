package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/jadehire-agent/internal/llm"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// browseEntry pairs an entry with a Browse button that fills in a file path
func (a *App) browseEntry(entry *widget.Entry) fyne.CanvasObject {
	btn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err == nil && uc != nil {
				entry.SetText(uc.URI().Path())
				uc.Close()
			}
		}, a.mainWindow)
	})
	return container.NewBorder(nil, nil, nil, btn, entry)
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	backendSelect := widget.NewSelect([]string{llm.BackendVertexAI, llm.BackendGemini}, nil)
	backendSelect.SetSelected(a.config.LLMBackend)

	modelEntry := widget.NewEntry()
	modelEntry.SetText(a.config.Model)

	apiKeyEntry := widget.NewPasswordEntry()
	apiKeyEntry.SetText(a.config.GeminiAPIKey)

	projectEntry := widget.NewEntry()
	projectEntry.SetText(a.config.GoogleCloudProject)

	locationEntry := widget.NewEntry()
	locationEntry.SetText(a.config.GoogleCloudLocation)

	googleCredsEntry := widget.NewEntry()
	googleCredsEntry.SetText(a.config.GoogleCredentialsPath)

	clientSecretEntry := widget.NewEntry()
	clientSecretEntry.SetText(a.config.OAuthClientSecretPath)

	calendarEntry := widget.NewEntry()
	calendarEntry.SetText(a.config.CalendarID)

	timeZoneEntry := widget.NewEntry()
	timeZoneEntry.SetText(a.config.TimeZone)

	form := widget.NewForm(
		widget.NewFormItem("LLM Backend", backendSelect),
		widget.NewFormItem("Model", modelEntry),
		widget.NewFormItem("Gemini API Key", apiKeyEntry),
		widget.NewFormItem("Google Cloud Project", projectEntry),
		widget.NewFormItem("Google Cloud Location", locationEntry),
		widget.NewFormItem("Google Credentials", a.browseEntry(googleCredsEntry)),
		widget.NewFormItem("OAuth Client Secret", a.browseEntry(clientSecretEntry)),
		widget.NewFormItem("Calendar ID", calendarEntry),
		widget.NewFormItem("Time Zone", timeZoneEntry),
	)

	saveBtn := widget.NewButton("Save Settings", func() {
		a.config.LLMBackend = backendSelect.Selected
		a.config.Model = modelEntry.Text
		a.config.GeminiAPIKey = apiKeyEntry.Text
		a.config.GoogleCloudProject = projectEntry.Text
		a.config.GoogleCloudLocation = locationEntry.Text
		a.config.GoogleCredentialsPath = googleCredsEntry.Text
		a.config.OAuthClientSecretPath = clientSecretEntry.Text
		a.config.CalendarID = calendarEntry.Text
		a.config.TimeZone = timeZoneEntry.Text

		if err := a.config.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}

		// Apply to environment
		a.config.ApplyToEnv()

		dialog.ShowInformation("Success", "Settings saved. Restart JadeHire to switch providers.", a.mainWindow)
	})

	testBtn := widget.NewButton("Validate", func() {
		if err := a.config.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Configuration is valid", a.mainWindow)
	})

	googleStatus := widget.NewLabel("Google: not connected")
	var connectBtn *widget.Button
	connectBtn = widget.NewButton("Connect Google", func() { a.handleConnect(connectBtn, googleStatus) })
	if a.connector == nil {
		connectBtn.Disable()
		googleStatus.SetText("Google: not configured")
	}

	return container.NewVBox(
		form,
		container.NewHBox(saveBtn, testBtn),
		widget.NewSeparator(),
		container.NewHBox(googleStatus, connectBtn),
	)
}

// handleConnect runs the OAuth flow ahead of the first calendar or mail call
func (a *App) handleConnect(btn *widget.Button, status *widget.Label) {
	btn.Disable()
	status.SetText("Google: connecting...")

	go func() {
		_, err := a.connector.Acquire(a.ctx)

		// All UI updates must be done on the main thread using fyne.Do
		fyne.Do(func() {
			btn.Enable()
			if err != nil {
				a.log.Error(context.Background(), "google authorization failed", logger.Error(err))
				status.SetText("Google: not connected")
				dialog.ShowError(fmt.Errorf("authentication failed: %w", err), a.mainWindow)
				return
			}
			status.SetText("Google: connected")
			dialog.ShowInformation("Success", "Google Calendar and Gmail are connected.", a.mainWindow)
		})
	}()
}
