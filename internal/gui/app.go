package gui

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/internal/config"
	"github.com/fmuoria/jadehire-agent/internal/google"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
	"golang.org/x/oauth2"
)

// Connector acquires provider authorization ahead of the first call
type Connector interface {
	Acquire(ctx context.Context) (*oauth2.Token, error)
}

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	session    *agent.Session
	connector  Connector
	location   *time.Location
	ctx        context.Context
	cancelFunc context.CancelFunc
	log        logger.Logger

	statusLabel *widget.Label
	usageTab    *usageTab
}

// NewApp creates the window. Call Start once the session is wired.
func NewApp(cfg *config.Config) *App {
	a := app.NewWithID("com.jadehire.agent")
	w := a.NewWindow("JadeHire")
	w.Resize(fyne.NewSize(1100, 760))

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		fyneApp:    a,
		mainWindow: w,
		config:     cfg,
		location:   loc,
		ctx:        ctx,
		cancelFunc: cancel,
		log:        logger.Named("gui"),
	}
}

// SetConnector enables the Connect Google button in Settings
func (a *App) SetConnector(c Connector) {
	a.connector = c
}

// Start builds the workflow tabs around session and blocks until the window closes
func (a *App) Start(session *agent.Session) {
	a.session = session
	a.setupUI()
	a.mainWindow.SetOnClosed(a.cancelFunc)
	a.mainWindow.ShowAndRun()
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	a.statusLabel = widget.NewLabel("Ready")
	a.usageTab = newUsageTab(a)

	tabs := container.NewAppTabs(
		container.NewTabItem("Screening", newScreeningTab(a).content()),
		container.NewTabItem("Standardization", newStandardizeTab(a).content()),
		container.NewTabItem("Scheduling", newSchedulingTab(a).content()),
		container.NewTabItem("Candidate Connect", newEngagementTab(a).content()),
		container.NewTabItem("LLM Utilization", a.usageTab.content()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)
	tabs.OnSelected = func(item *container.TabItem) {
		if item.Text == "LLM Utilization" {
			a.usageTab.refresh()
		}
	}

	resetBtn := widget.NewButton("New Session", func() {
		dialog.ShowConfirm("New Session", "Clear every workflow and the usage counters?", func(ok bool) {
			if ok {
				a.session.Reset()
				a.usageTab.refresh()
				a.setStatus("Session cleared")
			}
		}, a.mainWindow)
	})

	a.mainWindow.SetContent(container.NewBorder(nil,
		container.NewBorder(nil, nil, nil, resetBtn, a.statusLabel),
		nil, nil, tabs))
}

func (a *App) setStatus(text string) {
	a.statusLabel.SetText(text)
}

// run executes work off the UI thread and hands its error to done on the UI thread
func (a *App) run(status string, work func(ctx context.Context) error, done func(err error)) {
	a.setStatus(status)
	go func() {
		err := work(a.ctx)
		fyne.Do(func() {
			if err != nil {
				a.setStatus("Error: " + friendlyError(err))
			} else {
				a.setStatus("Ready")
			}
			done(err)
			a.usageTab.refresh()
		})
	}()
}

func (a *App) showError(err error) {
	dialog.ShowError(errors.New(friendlyError(err)), a.mainWindow)
}

// PromptAuthCode asks the user to sign in with Google and paste the code.
// It is called from the provider goroutine, never the UI thread.
func (a *App) PromptAuthCode(ctx context.Context, authURL string) (string, error) {
	result := make(chan string, 1)

	fyne.Do(func() {
		u, err := url.Parse(authURL)
		if err == nil {
			if err := a.fyneApp.OpenURL(u); err != nil {
				a.log.Warn(ctx, "failed to open browser", logger.Error(err))
			}
		}

		codeEntry := widget.NewEntry()
		codeEntry.SetPlaceHolder("Paste the authorization code")
		items := []*widget.FormItem{
			widget.NewFormItem("Sign in", widget.NewHyperlink("Open Google sign-in", u)),
			widget.NewFormItem("Code", codeEntry),
		}
		dialog.ShowForm("Authorize Google", "Submit", "Cancel", items, func(ok bool) {
			if ok {
				result <- strings.TrimSpace(codeEntry.Text)
				return
			}
			result <- ""
		}, a.mainWindow)
	})

	select {
	case code := <-result:
		if code == "" {
			return "", google.ErrNoAuthCode
		}
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
