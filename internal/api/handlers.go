package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/agent"
	"github.com/fmuoria/jadehire-agent/internal/calendar"
	"github.com/fmuoria/jadehire-agent/internal/export"
	"github.com/fmuoria/jadehire-agent/internal/ingestion"
	"github.com/fmuoria/jadehire-agent/internal/messaging"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleScreen ranks uploaded resumes. Form fields: job_description
// (text) or job_description_file, and one or more resumes files.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	release, err := parseUploads(r, maxUploadMemory)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}
	defer release()

	jobDescription := r.FormValue("job_description")
	if files := r.MultipartForm.File["job_description_file"]; len(files) > 0 && strings.TrimSpace(jobDescription) == "" {
		docs, err := ingestion.ReadMultipart(files[:1])
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		jobDescription = docs[0].Text
	}

	resumes, err := ingestion.ReadMultipart(r.MultipartForm.File["resumes"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := session.Screen(r.Context(), jobDescription, resumes)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// handleScreeningReport returns the last ranking
func (s *Server) handleScreeningReport(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	report, err := session.ScreeningReport()
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// handleScreeningExcel downloads the last ranking as a workbook
func (s *Server) handleScreeningExcel(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	state, err := session.LastScreening()
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteScreening(&buf, state.Report, state.JobDescription); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.sendFile(w, "screening_report.xlsx", xlsxContentType, buf.Bytes())
}

// handleStandardize rewrites the resume file in the layout of the sample file
func (s *Server) handleStandardize(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	release, err := parseUploads(r, maxUploadMemory)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}
	defer release()

	sample, err := s.singleUpload(r, "sample")
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	resume, err := s.singleUpload(r, "resume")
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	output, err := session.Standardize(r.Context(), sample, resume)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	downloads, _ := session.StandardizedExports()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"text":      output,
		"downloads": downloads,
	})
}

// handleStandardizedDownload serves the standardized text as docx, pdf or txt
func (s *Server) handleStandardizedDownload(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	downloads, err := session.StandardizedExports()
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	d, ok := export.Find(downloads, r.PathValue("format"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "format must be docx, pdf or txt")
		return
	}
	s.sendFile(w, d.FileName, d.ContentType, d.Data)
}

type extractRequest struct {
	Instruction string `json:"instruction"`
}

// handleExtractSchedule pre-fills an interview draft from free text
func (s *Server) handleExtractSchedule(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req extractRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	draft, ok, err := session.ExtractSchedule(r.Context(), req.Instruction)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"draft":     draft,
		"extracted": ok,
	})
}

// handleScheduleInterview books the interview described by the body
func (s *Server) handleScheduleInterview(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req models.ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	event, err := session.ScheduleInterview(r.Context(), req)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, event)
}

type searchRequest struct {
	Email string `json:"email"`
}

type eventsResponse struct {
	Events   []models.CalendarEvent `json:"events"`
	Selected int                    `json:"selected"`
}

// handleFindEvents looks up upcoming interviews of a candidate
func (s *Server) handleFindEvents(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	if _, err := session.FindCandidateEvents(r.Context(), req.Email); err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	events, selected := session.FoundEvents()
	s.respondJSON(w, http.StatusOK, eventsResponse{Events: events, Selected: selected})
}

type indexRequest struct {
	Index int `json:"index"`
}

// handleSelectEvent picks one of several found events
func (s *Server) handleSelectEvent(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req indexRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	event, err := session.SelectEvent(req.Index)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

type slotRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Notes string `json:"notes,omitempty"`
}

// handleReschedule moves the selected event to a new slot
func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req slotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	event, err := session.Reschedule(r.Context(), req.Date, req.Time)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

// handleHistory lists the past year of events
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	events, err := session.History(r.Context())
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// handleUpcoming lists the next thirty days of events
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	events, err := session.Upcoming(r.Context())
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

type deliveryResponse struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

func deliveries(report messaging.Report) []deliveryResponse {
	out := make([]deliveryResponse, 0, len(report.Deliveries))
	for _, d := range report.Deliveries {
		resp := deliveryResponse{Recipient: d.Recipient, Sent: d.OK()}
		if d.Err != nil {
			resp.Error = d.Err.Error()
		}
		out = append(out, resp)
	}
	return out
}

// handleReminder emails the attendees of an upcoming event
func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req indexRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	report, err := session.SendReminder(r.Context(), req.Index)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"deliveries": deliveries(report)})
}

// handleRecordFeedback stores a rating. A failed panel notification is
// reported alongside the saved feedback.
func (s *Server) handleRecordFeedback(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var fb models.Feedback
	if err := decodeJSON(r, &fb); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	saved, err := session.RecordFeedback(r.Context(), fb)
	if errors.Is(err, agent.ErrNotificationFailed) {
		s.log.Warn(r.Context(), "feedback saved without notification", logger.Error(err))
		s.respondJSON(w, http.StatusCreated, map[string]interface{}{
			"feedback": saved,
			"warning":  err.Error(),
		})
		return
	}
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"feedback": saved})
}

// handleListFeedback returns every recorded rating
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"feedback": session.Feedback()})
}

type candidateRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	JoiningDate string `json:"joining_date"` // YYYY-MM-DD
}

// handleSetupCandidate saves the candidate being onboarded
func (s *Server) handleSetupCandidate(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req candidateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	joining, err := time.ParseInLocation(calendar.DateLayout, strings.TrimSpace(req.JoiningDate), s.location)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "joining_date must be YYYY-MM-DD")
		return
	}

	profile, err := session.SetupCandidate(req.Name, req.Email, req.Role, joining)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

// handleProfile returns the candidate with materials and concerns
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	profile, err := session.Profile()
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

// handleTimeline returns the five engagement checkpoints
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	checkpoints, err := session.Timeline()
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"checkpoints": checkpoints})
}

type draftRequest struct {
	Checkpoint string `json:"checkpoint"`
	Body       string `json:"body"`
}

// handleDraftEmail drafts the email for a checkpoint
func (s *Server) handleDraftEmail(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	draft, err := session.DraftEngagementEmail(r.Context(), req.Checkpoint, s.now().In(s.location))
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, draft)
}

// handleEditDraft replaces the draft body
func (s *Server) handleEditDraft(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	draft, err := session.EditDraft(req.Body)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, draft)
}

// handleSendDraft emails the current draft to the candidate
func (s *Server) handleSendDraft(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	if err := session.SendDraft(r.Context()); err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type messageRequest struct {
	Message string `json:"message"`
}

// handleFollowUp sends a free-form follow-up to the candidate
func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	if err := session.FollowUp(r.Context(), req.Message); err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleAddMaterials records onboarding material names. Uploaded files
// under "materials" are accepted by name only.
func (s *Server) handleAddMaterials(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var names []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		release, err := parseUploads(r, maxUploadMemory)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
			return
		}
		defer release()
		names = ingestion.FileNames(r.MultipartForm.File["materials"])
	} else {
		var req struct {
			Names []string `json:"names"`
		}
		if err := decodeJSON(r, &req); err != nil {
			s.respondAgentError(w, r, err)
			return
		}
		names = req.Names
	}

	materials := session.AddOnboardingMaterials(names...)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"materials": materials})
}

// handleCheckIn books a 30-minute check-in with the candidate
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req slotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	event, err := session.ScheduleCheckIn(r.Context(), req.Date, req.Time, req.Notes)
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, event)
}

type concernRequest struct {
	Text string `json:"text"`
}

// handleLogConcern records a timestamped concern
func (s *Server) handleLogConcern(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var req concernRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAgentError(w, r, err)
		return
	}

	concern, err := session.LogConcern(req.Text, s.now().In(s.location))
	if err != nil {
		s.respondAgentError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, concern)
}

// handleUsage returns the session's model usage counters
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	s.respondJSON(w, http.StatusOK, session.Usage())
}

// handleUsageExcel downloads the usage counters as a workbook
func (s *Server) handleUsageExcel(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	var buf bytes.Buffer
	if err := export.WriteUsage(&buf, session.Usage(), s.now().In(s.location)); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.sendFile(w, "llm_utilization.xlsx", xlsxContentType, buf.Bytes())
}

// handleReset clears every workflow of the session
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, session *agent.Session) {
	session.Reset()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// singleUpload reads the first file of a form field
func (s *Server) singleUpload(r *http.Request, field string) (models.Document, error) {
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return models.Document{}, &agent.ValidationError{Field: field, Message: "a file is required"}
	}
	docs, err := ingestion.ReadMultipart(files[:1])
	if err != nil {
		return models.Document{}, &agent.ValidationError{Field: field, Message: err.Error()}
	}
	return docs[0], nil
}

func (s *Server) sendFile(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
