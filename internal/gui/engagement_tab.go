package gui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/models"
)

type engagementTab struct {
	app *App

	checkpoints    []models.Checkpoint
	timelineList   *widget.List
	checkpointIdx  int
	draftEntry     *widget.Entry
	materialsLabel *widget.Label
	concernsLabel  *widget.Label
}

func newEngagementTab(a *App) *engagementTab {
	return &engagementTab{app: a, checkpointIdx: -1}
}

func (t *engagementTab) content() fyne.CanvasObject {
	accordion := widget.NewAccordion(
		widget.NewAccordionItem("Candidate Setup", t.setupSection()),
		widget.NewAccordionItem("Engagement Timeline", t.timelineSection()),
		widget.NewAccordionItem("Follow-Ups", t.followUpSection()),
		widget.NewAccordionItem("Onboarding Material", t.materialsSection()),
		widget.NewAccordionItem("Check-Ins & Concerns", t.checkInSection()),
	)
	accordion.Open(0)
	return container.NewVScroll(accordion)
}

func (t *engagementTab) setupSection() fyne.CanvasObject {
	nameEntry := widget.NewEntry()
	emailEntry := widget.NewEntry()
	roleEntry := widget.NewEntry()
	joiningEntry := widget.NewEntry()
	joiningEntry.SetPlaceHolder("YYYY-MM-DD")

	saveBtn := widget.NewButton("Save Candidate", func() {
		joining, err := time.ParseInLocation(calendar.DateLayout, strings.TrimSpace(joiningEntry.Text), t.app.location)
		if err != nil {
			dialog.ShowError(errors.New("joining date must be YYYY-MM-DD"), t.app.mainWindow)
			return
		}
		profile, err := t.app.session.SetupCandidate(nameEntry.Text, emailEntry.Text, roleEntry.Text, joining)
		if err != nil {
			t.app.showError(err)
			return
		}
		t.refreshTimeline()
		t.app.setStatus(fmt.Sprintf("%s joins on %s", profile.Name, profile.JoiningDate.Format(calendar.DateLayout)))
	})

	return container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Email", emailEntry),
			widget.NewFormItem("Role", roleEntry),
			widget.NewFormItem("Joining date", joiningEntry),
		),
		saveBtn,
	)
}

func (t *engagementTab) refreshTimeline() {
	checkpoints, err := t.app.session.Timeline()
	if err != nil {
		t.checkpoints = nil
	} else {
		t.checkpoints = checkpoints
	}
	t.checkpointIdx = -1
	t.timelineList.UnselectAll()
	t.timelineList.Refresh()
}

func (t *engagementTab) timelineSection() fyne.CanvasObject {
	t.timelineList = widget.NewList(
		func() int { return len(t.checkpoints) },
		func() fyne.CanvasObject { return widget.NewLabel("T-30") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(checkpointLabel(t.checkpoints[id], time.Now().In(t.app.location)))
		},
	)
	t.timelineList.OnSelected = func(id widget.ListItemID) {
		t.checkpointIdx = id
	}

	t.draftEntry = widget.NewMultiLineEntry()
	t.draftEntry.Wrapping = fyne.TextWrapWord
	t.draftEntry.SetMinRowsVisible(8)

	var draftBtn *widget.Button
	draftBtn = widget.NewButton("Draft Email", func() {
		if t.checkpointIdx < 0 || t.checkpointIdx >= len(t.checkpoints) {
			dialog.ShowError(errors.New("select a checkpoint first"), t.app.mainWindow)
			return
		}
		label := t.checkpoints[t.checkpointIdx].Label
		today := time.Now().In(t.app.location)
		draftBtn.Disable()

		var draft models.EmailDraft
		t.app.run("Drafting "+label+" email...", func(ctx context.Context) error {
			var err error
			draft, err = t.app.session.DraftEngagementEmail(ctx, label, today)
			return err
		}, func(err error) {
			draftBtn.Enable()
			if err != nil {
				t.app.showError(err)
				return
			}
			t.draftEntry.SetText(draft.Body)
		})
	})

	sendBtn := widget.NewButton("Send Email", func() {
		if _, err := t.app.session.EditDraft(t.draftEntry.Text); err != nil {
			t.app.showError(err)
			return
		}
		t.app.run("Sending email...", func(ctx context.Context) error {
			return t.app.session.SendDraft(ctx)
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			dialog.ShowInformation("Sent", "Engagement email sent", t.app.mainWindow)
		})
	})

	return container.NewVBox(
		container.NewGridWrap(fyne.NewSize(600, 190), t.timelineList),
		draftBtn,
		t.draftEntry,
		sendBtn,
	)
}

func (t *engagementTab) followUpSection() fyne.CanvasObject {
	message := widget.NewMultiLineEntry()
	message.SetPlaceHolder(agent.DefaultFollowUpMessage)

	sendBtn := widget.NewButton("Send Follow-Up", func() {
		text := message.Text
		t.app.run("Sending follow-up...", func(ctx context.Context) error {
			return t.app.session.FollowUp(ctx, text)
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			message.SetText("")
			dialog.ShowInformation("Sent", "Follow-up sent", t.app.mainWindow)
		})
	})

	return container.NewVBox(message, sendBtn)
}

func (t *engagementTab) materialsSection() fyne.CanvasObject {
	t.materialsLabel = widget.NewLabel("No material uploaded")
	names := widget.NewMultiLineEntry()
	names.SetPlaceHolder("One file name per line")

	show := func(materials []string) {
		if len(materials) == 0 {
			t.materialsLabel.SetText("No material uploaded")
			return
		}
		t.materialsLabel.SetText(strings.Join(materials, "\n"))
	}

	addBtn := widget.NewButton("Add Names", func() {
		show(t.app.session.AddOnboardingMaterials(splitLines(names.Text)...))
		names.SetText("")
	})
	uploadBtn := widget.NewButton("Upload File...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			defer uc.Close()
			// Only the name is kept.
			show(t.app.session.AddOnboardingMaterials(uc.URI().Name()))
		}, t.app.mainWindow)
	})

	return container.NewVBox(
		names,
		container.NewHBox(addBtn, uploadBtn),
		t.materialsLabel,
	)
}

func (t *engagementTab) checkInSection() fyne.CanvasObject {
	dateEntry := widget.NewEntry()
	dateEntry.SetPlaceHolder("YYYY-MM-DD")
	timeEntry := widget.NewEntry()
	timeEntry.SetPlaceHolder("HH:MM")
	notesEntry := widget.NewEntry()
	notesEntry.SetPlaceHolder(agent.DefaultCheckInNotes)

	checkInBtn := widget.NewButton("Schedule Check-In", func() {
		date, clock, notes := dateEntry.Text, timeEntry.Text, notesEntry.Text
		var event models.CalendarEvent
		t.app.run("Scheduling check-in...", func(ctx context.Context) error {
			var err error
			event, err = t.app.session.ScheduleCheckIn(ctx, date, clock, notes)
			return err
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			dialog.ShowInformation("Check-In Scheduled", eventLabel(event), t.app.mainWindow)
		})
	})

	concernEntry := widget.NewEntry()
	concernEntry.SetPlaceHolder("Describe the concern")
	t.concernsLabel = widget.NewLabel("No concerns logged")

	logBtn := widget.NewButton("Log Concern", func() {
		if _, err := t.app.session.LogConcern(concernEntry.Text, time.Time{}); err != nil {
			t.app.showError(err)
			return
		}
		concernEntry.SetText("")

		profile, err := t.app.session.Profile()
		if err != nil {
			t.concernsLabel.SetText("Concern logged")
			return
		}
		lines := make([]string, 0, len(profile.Concerns))
		for _, c := range profile.Concerns {
			lines = append(lines, fmt.Sprintf("%s  %s", c.At.In(t.app.location).Format("2006-01-02 15:04"), c.Text))
		}
		t.concernsLabel.SetText(strings.Join(lines, "\n"))
	})

	return container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Date", dateEntry),
			widget.NewFormItem("Time", timeEntry),
			widget.NewFormItem("Notes", notesEntry),
		),
		checkInBtn,
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, logBtn, concernEntry),
		t.concernsLabel,
	)
}
