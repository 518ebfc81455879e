package gui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
)

type schedulingTab struct {
	app *App

	// Interview draft
	candidateEntry, panelEntry, subjectEntry *widget.Entry
	bodyEntry, dateEntry, timeEntry          *widget.Entry

	found         []models.CalendarEvent
	foundList     *widget.List
	upcoming      []models.CalendarEvent
	upcomingList  *widget.List
	upcomingIndex int
	history       []models.CalendarEvent
	historyList   *widget.List
	feedbackLabel *widget.Label
}

func newSchedulingTab(a *App) *schedulingTab {
	return &schedulingTab{app: a, upcomingIndex: -1}
}

func eventList(events *[]models.CalendarEvent) *widget.List {
	return widget.NewList(
		func() int { return len(*events) },
		func() fyne.CanvasObject { return widget.NewLabel("event") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(eventLabel((*events)[id]))
		},
	)
}

func (t *schedulingTab) content() fyne.CanvasObject {
	accordion := widget.NewAccordion(
		widget.NewAccordionItem("Schedule Interview", t.scheduleSection()),
		widget.NewAccordionItem("Reschedule", t.rescheduleSection()),
		widget.NewAccordionItem("Upcoming & Reminders", t.upcomingSection()),
		widget.NewAccordionItem("Interview History", t.historySection()),
		widget.NewAccordionItem("Interviewer Feedback", t.feedbackSection()),
	)
	accordion.Open(0)
	return container.NewVScroll(accordion)
}

func (t *schedulingTab) scheduleSection() fyne.CanvasObject {
	instruction := widget.NewMultiLineEntry()
	instruction.SetPlaceHolder("e.g. Schedule an interview with jane@example.com and lead@jadehire.com next Friday at 3pm")
	instruction.SetMinRowsVisible(2)

	t.candidateEntry = widget.NewEntry()
	t.panelEntry = widget.NewEntry()
	t.subjectEntry = widget.NewEntry()
	t.subjectEntry.SetText(agent.DefaultInterviewSubject)
	t.bodyEntry = widget.NewMultiLineEntry()
	t.bodyEntry.SetText(agent.DefaultInterviewBody)
	t.dateEntry = widget.NewEntry()
	t.dateEntry.SetPlaceHolder("YYYY-MM-DD")
	t.timeEntry = widget.NewEntry()
	t.timeEntry.SetPlaceHolder("HH:MM")

	var extractBtn *widget.Button
	extractBtn = widget.NewButton("Extract Details", func() {
		text := instruction.Text
		extractBtn.Disable()

		var (
			draft models.ScheduleRequest
			ok    bool
		)
		t.app.run("Reading the instruction...", func(ctx context.Context) error {
			var err error
			draft, ok, err = t.app.session.ExtractSchedule(ctx, text)
			return err
		}, func(err error) {
			extractBtn.Enable()
			if err != nil {
				t.app.showError(err)
				return
			}
			t.fillDraft(draft)
			if !ok {
				t.app.setStatus("Nothing could be extracted; please fill in the details")
			}
		})
	})

	scheduleBtn := widget.NewButton("Schedule Interview", func() {
		req := models.ScheduleRequest{
			CandidateEmail: t.candidateEntry.Text,
			PanelEmail:     t.panelEntry.Text,
			Subject:        t.subjectEntry.Text,
			Body:           t.bodyEntry.Text,
			Date:           t.dateEntry.Text,
			Time:           t.timeEntry.Text,
		}

		var event models.CalendarEvent
		t.app.run("Creating calendar event...", func(ctx context.Context) error {
			var err error
			event, err = t.app.session.ScheduleInterview(ctx, req)
			return err
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			dialog.ShowInformation("Interview Scheduled", eventLabel(event), t.app.mainWindow)
		})
	})

	return container.NewVBox(
		instruction,
		extractBtn,
		widget.NewForm(
			widget.NewFormItem("Candidate email", t.candidateEntry),
			widget.NewFormItem("Panel email", t.panelEntry),
			widget.NewFormItem("Subject", t.subjectEntry),
			widget.NewFormItem("Body", t.bodyEntry),
			widget.NewFormItem("Date", t.dateEntry),
			widget.NewFormItem("Time", t.timeEntry),
		),
		scheduleBtn,
	)
}

func (t *schedulingTab) fillDraft(draft models.ScheduleRequest) {
	t.candidateEntry.SetText(draft.CandidateEmail)
	t.panelEntry.SetText(draft.PanelEmail)
	t.subjectEntry.SetText(draft.Subject)
	t.bodyEntry.SetText(draft.Body)
	t.dateEntry.SetText(draft.Date)
	t.timeEntry.SetText(draft.Time)
}

func (t *schedulingTab) rescheduleSection() fyne.CanvasObject {
	emailEntry := widget.NewEntry()
	emailEntry.SetPlaceHolder("candidate@example.com")
	dateEntry := widget.NewEntry()
	dateEntry.SetPlaceHolder("YYYY-MM-DD")
	timeEntry := widget.NewEntry()
	timeEntry.SetPlaceHolder("HH:MM")

	t.foundList = eventList(&t.found)
	t.foundList.OnSelected = func(id widget.ListItemID) {
		if _, err := t.app.session.SelectEvent(id); err != nil {
			t.app.showError(err)
		}
	}

	findBtn := widget.NewButton("Find Events", func() {
		email := emailEntry.Text
		var (
			found    []models.CalendarEvent
			selected int
		)
		t.app.run("Searching calendar...", func(ctx context.Context) error {
			if _, err := t.app.session.FindCandidateEvents(ctx, email); err != nil {
				return err
			}
			found, selected = t.app.session.FoundEvents()
			return nil
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			t.found = found
			t.foundList.UnselectAll()
			t.foundList.Refresh()
			switch {
			case len(t.found) == 0:
				t.app.setStatus("No upcoming events for " + email)
			case selected >= 0:
				t.foundList.Select(selected)
			default:
				t.app.setStatus(fmt.Sprintf("%d events found; select one to reschedule", len(t.found)))
			}
		})
	})

	rescheduleBtn := widget.NewButton("Reschedule", func() {
		date, clock := dateEntry.Text, timeEntry.Text
		var moved models.CalendarEvent
		t.app.run("Updating calendar event...", func(ctx context.Context) error {
			var err error
			moved, err = t.app.session.Reschedule(ctx, date, clock)
			return err
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			dialog.ShowInformation("Rescheduled", eventLabel(moved), t.app.mainWindow)
		})
	})

	return container.NewVBox(
		container.NewBorder(nil, nil, nil, findBtn, emailEntry),
		container.NewGridWrap(fyne.NewSize(900, 140), t.foundList),
		widget.NewForm(
			widget.NewFormItem("New date", dateEntry),
			widget.NewFormItem("New time", timeEntry),
		),
		rescheduleBtn,
	)
}

func (t *schedulingTab) upcomingSection() fyne.CanvasObject {
	t.upcomingList = eventList(&t.upcoming)
	t.upcomingList.OnSelected = func(id widget.ListItemID) {
		t.upcomingIndex = id
	}

	loadBtn := widget.NewButton("Load Next 30 Days", func() {
		var events []models.CalendarEvent
		t.app.run("Loading upcoming events...", func(ctx context.Context) error {
			var err error
			events, err = t.app.session.Upcoming(ctx)
			return err
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			t.upcoming = events
			t.upcomingIndex = -1
			t.upcomingList.UnselectAll()
			t.upcomingList.Refresh()
		})
	})

	remindBtn := widget.NewButton("Send Reminder", func() {
		if t.upcomingIndex < 0 {
			dialog.ShowError(errors.New("select an event first"), t.app.mainWindow)
			return
		}
		index := t.upcomingIndex
		var report messaging.Report
		t.app.run("Sending reminders...", func(ctx context.Context) error {
			var err error
			report, err = t.app.session.SendReminder(ctx, index)
			return err
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			dialog.ShowInformation("Reminder", deliverySummary(report), t.app.mainWindow)
		})
	})

	return container.NewVBox(
		container.NewHBox(loadBtn, remindBtn),
		container.NewGridWrap(fyne.NewSize(900, 180), t.upcomingList),
	)
}

func (t *schedulingTab) historySection() fyne.CanvasObject {
	t.historyList = eventList(&t.history)

	loadBtn := widget.NewButton("Load Past 12 Months", func() {
		var events []models.CalendarEvent
		t.app.run("Loading history...", func(ctx context.Context) error {
			var err error
			events, err = t.app.session.History(ctx)
			return err
		}, func(err error) {
			if err != nil {
				t.app.showError(err)
				return
			}
			t.history = events
			t.historyList.Refresh()
			t.app.setStatus(fmt.Sprintf("%d events in the past 12 months", len(events)))
		})
	})

	return container.NewVBox(
		loadBtn,
		container.NewGridWrap(fyne.NewSize(900, 180), t.historyList),
	)
}

func (t *schedulingTab) feedbackSection() fyne.CanvasObject {
	candidateEntry := widget.NewEntry()
	candidateEntry.SetPlaceHolder("Candidate name or email")
	ratingSelect := widget.NewSelect([]string{"1", "2", "3", "4", "5"}, nil)
	ratingSelect.SetSelected("3")
	notesEntry := widget.NewMultiLineEntry()
	panelEntry := widget.NewEntry()
	panelEntry.SetPlaceHolder("Optional: panel@jadehire.com")
	t.feedbackLabel = widget.NewLabel("No feedback recorded")

	saveBtn := widget.NewButton("Save Feedback", func() {
		rating, _ := strconv.Atoi(ratingSelect.Selected)
		fb := models.Feedback{
			Candidate:   candidateEntry.Text,
			Rating:      rating,
			Notes:       notesEntry.Text,
			NotifyPanel: panelEntry.Text,
		}

		t.app.run("Saving feedback...", func(ctx context.Context) error {
			_, err := t.app.session.RecordFeedback(ctx, fb)
			return err
		}, func(err error) {
			t.feedbackLabel.SetText(fmt.Sprintf("%d feedback entries recorded", len(t.app.session.Feedback())))
			switch {
			case errors.Is(err, agent.ErrNotificationFailed):
				dialog.ShowInformation("Feedback Saved", "Saved, but the panel email could not be sent:\n"+err.Error(), t.app.mainWindow)
			case err != nil:
				t.app.showError(err)
			default:
				notesEntry.SetText("")
				dialog.ShowInformation("Feedback Saved", "Feedback recorded", t.app.mainWindow)
			}
		})
	})

	return container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Candidate", candidateEntry),
			widget.NewFormItem("Rating", ratingSelect),
			widget.NewFormItem("Notes", notesEntry),
			widget.NewFormItem("Notify panel", panelEntry),
		),
		saveBtn,
		t.feedbackLabel,
	)
}
