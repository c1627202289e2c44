// Package client is a Go client for the scheduling admin API. Failures come
// back as *ValidationError, *ConflictError, *NotFoundError or *TransportError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/jadwal-backend/internal/model"
)

const apiPrefix = "/api/v1/admin"

// Client calls the admin API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ─── Requests ─────────────────────────────────────────────────────────

// SectionUpdate is a partial section update. Nil members are not sent.
type SectionUpdate struct {
	Name      *string              `json:"name,omitempty"`
	Semester  *string              `json:"semester,omitempty"`
	Year      *int                 `json:"year,omitempty"`
	Status    *model.SectionStatus `json:"status,omitempty"`
	FacultyID *model.OptionalInt   `json:"faculty_id,omitempty"`
}

// NewSchedule assigns a course meeting to a section. FacultyID, when set,
// rebinds the section's instructor in the same call.
type NewSchedule struct {
	CourseID int `json:"course_id"`
	model.ScheduleFields
	FacultyID *model.OptionalInt `json:"faculty_id,omitempty"`
}

// Faculty builds the faculty_id member of a request; nil unassigns.
func Faculty(id *int) *model.OptionalInt {
	return &model.OptionalInt{Set: true, Value: id}
}

// ─── Directory ────────────────────────────────────────────────────────

func (c *Client) ListPrograms(ctx context.Context) ([]model.Program, error) {
	var out []model.Program
	return out, c.do(ctx, "list programs", http.MethodGet, "/programs", nil, "programs", &out)
}

func (c *Client) ListCourses(ctx context.Context) ([]model.Course, error) {
	var out []model.Course
	return out, c.do(ctx, "list courses", http.MethodGet, "/courses", nil, "courses", &out)
}

func (c *Client) ListFaculty(ctx context.Context) ([]model.Faculty, error) {
	var out []model.Faculty
	return out, c.do(ctx, "list faculty", http.MethodGet, "/faculty", nil, "faculty", &out)
}

// ListSections lists the sections of programID, or all of them when it is 0.
func (c *Client) ListSections(ctx context.Context, programID int) ([]model.Section, error) {
	path := "/sections"
	if programID > 0 {
		path += "?program_id=" + strconv.Itoa(programID)
	}
	var out []model.Section
	return out, c.do(ctx, "list sections", http.MethodGet, path, nil, "sections", &out)
}

// GetSection returns a section with its schedules.
func (c *Client) GetSection(ctx context.Context, id int) (*model.Section, error) {
	var out model.Section
	if err := c.do(ctx, "get section", http.MethodGet, fmt.Sprintf("/sections/%d", id), nil, "section", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Sections ─────────────────────────────────────────────────────────

func (c *Client) CreateSection(ctx context.Context, req model.CreateSectionRequest) (*model.Section, error) {
	var out model.Section
	if err := c.do(ctx, "create section", http.MethodPost, "/sections", req, "section", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSection(ctx context.Context, id int, upd SectionUpdate) (*model.Section, error) {
	var out model.Section
	if err := c.do(ctx, "update section", http.MethodPatch, fmt.Sprintf("/sections/%d", id), upd, "section", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignFaculty rebinds the section's instructor; nil unassigns it.
func (c *Client) AssignFaculty(ctx context.Context, sectionID int, facultyID *int) (*model.Section, error) {
	var out model.Section
	body := model.AssignFacultyRequest{FacultyID: model.OptionalInt{Set: true, Value: facultyID}}
	if err := c.do(ctx, "assign faculty", http.MethodPut, fmt.Sprintf("/sections/%d/faculty", sectionID), body, "section", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSection(ctx context.Context, id int) error {
	return c.do(ctx, "delete section", http.MethodDelete, fmt.Sprintf("/sections/%d", id), nil, "", nil)
}

// SectionHistory returns the recorded changes of a section, oldest first.
func (c *Client) SectionHistory(ctx context.Context, id int) ([]model.ScheduleEvent, error) {
	var out []model.ScheduleEvent
	return out, c.do(ctx, "section history", http.MethodGet, fmt.Sprintf("/sections/%d/history", id), nil, "history", &out)
}

// ─── Schedules ────────────────────────────────────────────────────────

func (c *Client) ListSectionSchedules(ctx context.Context, sectionID int) ([]model.Schedule, error) {
	var out []model.Schedule
	return out, c.do(ctx, "list section schedules", http.MethodGet, fmt.Sprintf("/sections/%d/schedules", sectionID), nil, "schedules", &out)
}

// ListSchedules lists schedules, optionally narrowed by day and room.
func (c *Client) ListSchedules(ctx context.Context, day model.Weekday, room string) ([]model.Schedule, error) {
	q := url.Values{}
	if day != "" {
		q.Set("day", string(day))
	}
	if room != "" {
		q.Set("room", room)
	}
	path := "/schedules"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []model.Schedule
	return out, c.do(ctx, "list schedules", http.MethodGet, path, nil, "schedules", &out)
}

func (c *Client) GetSchedule(ctx context.Context, id int) (*model.Schedule, error) {
	var out model.Schedule
	if err := c.do(ctx, "get schedule", http.MethodGet, fmt.Sprintf("/schedules/%d", id), nil, "schedule", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conflicts asks which blocking schedules overlap a proposed window.
func (c *Client) Conflicts(ctx context.Context, query model.ConflictQuery) (*model.ConflictReport, error) {
	q := url.Values{}
	q.Set("day", query.Day)
	q.Set("start_time", query.StartTime)
	q.Set("end_time", query.EndTime)
	if query.Room != "" {
		q.Set("room", query.Room)
	}
	if query.ExcludeID > 0 {
		q.Set("exclude_id", strconv.Itoa(query.ExcludeID))
	}
	var out model.ConflictReport
	if err := c.do(ctx, "check conflicts", http.MethodGet, "/schedules/conflicts?"+q.Encode(), nil, "report", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSchedule(ctx context.Context, sectionID int, req NewSchedule) (*model.Schedule, error) {
	var out model.Schedule
	if err := c.do(ctx, "create schedule", http.MethodPost, fmt.Sprintf("/sections/%d/schedules", sectionID), req, "schedule", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSchedule(ctx context.Context, id int, req model.UpdateScheduleRequest) (*model.Schedule, error) {
	var out model.Schedule
	if err := c.do(ctx, "update schedule", http.MethodPut, fmt.Sprintf("/schedules/%d", id), req, "schedule", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateScheduleStatus(ctx context.Context, id int, status model.ScheduleStatus) (*model.Schedule, error) {
	var out model.Schedule
	body := model.UpdateScheduleStatusRequest{Status: status}
	if err := c.do(ctx, "update schedule status", http.MethodPatch, fmt.Sprintf("/schedules/%d/status", id), body, "schedule", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, id int) error {
	return c.do(ctx, "delete schedule", http.MethodDelete, fmt.Sprintf("/schedules/%d", id), nil, "", nil)
}

// ─── Transport ────────────────────────────────────────────────────────

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
	Details json.RawMessage   `json:"details"`
}

// do sends one request and decodes data[key] into out.
func (c *Client) do(ctx context.Context, op, method, path string, body any, key string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Kind: dialKind(ctx, err), Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Kind: dialKind(ctx, err), Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Kind: statusKind(resp.StatusCode), Op: op, Status: resp.StatusCode, Err: errors.New(snippet(raw))}
	}
	if env.Error != nil {
		err := decodeError(op, resp.StatusCode, env.Error)
		var te *TransportError
		if errors.As(err, &te) && te.Kind == KindRateLimited {
			te.RetryAfter = retryAfter(resp.Header.Get("Retry-After"))
		}
		return err
	}
	if resp.StatusCode >= 400 {
		return &TransportError{Kind: statusKind(resp.StatusCode), Op: op, Status: resp.StatusCode}
	}

	if out == nil || key == "" {
		return nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &wrapper); err != nil {
		return &TransportError{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	member, ok := wrapper[key]
	if !ok {
		return &TransportError{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("response has no %q member", key)}
	}
	if err := json.Unmarshal(member, out); err != nil {
		return &TransportError{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// decodeError turns an API error body back into an error class.
func decodeError(op string, status int, e *apiError) error {
	switch e.Code {
	case "VALIDATION_ERROR", "INVALID_ID", "INVALID_PAYLOAD":
		return &ValidationError{Code: e.Code, Message: e.Message, Fields: e.Fields}

	case "SCHEDULE_CONFLICT", "COURSE_TIME_CONFLICT", "INSTRUCTOR_CONFLICT":
		ce := &ConflictError{Code: e.Code}
		var details struct {
			Rule      string           `json:"rule"`
			Dimension string           `json:"dimension"`
			Conflicts []model.Schedule `json:"conflicts"`
		}
		if len(e.Details) > 0 {
			if err := json.Unmarshal(e.Details, &details); err != nil {
				return &TransportError{Kind: KindDecode, Op: op, Status: status, Code: e.Code, Err: err}
			}
		}
		ce.Rule, ce.Dimension, ce.Conflicts = details.Rule, details.Dimension, details.Conflicts
		return ce

	case "NOT_FOUND":
		nf := &NotFoundError{}
		var details struct {
			Entity string `json:"entity"`
			ID     int    `json:"id"`
		}
		if len(e.Details) > 0 && json.Unmarshal(e.Details, &details) == nil {
			nf.Entity, nf.ID = details.Entity, details.ID
		}
		return nf

	case "RATE_LIMIT_EXCEEDED":
		return &TransportError{Kind: KindRateLimited, Op: op, Status: status, Code: e.Code, Err: errors.New(e.Message)}

	case "TOKEN_REQUIRED", "TOKEN_INVALID", "TOKEN_EXPIRED", "FORBIDDEN", "PERMISSION_DENIED", "ADMIN_ACCESS_ONLY":
		return &TransportError{Kind: KindAuth, Op: op, Status: status, Code: e.Code, Err: errors.New(e.Message)}
	}

	return &TransportError{Kind: statusKind(status), Op: op, Status: status, Code: e.Code, Err: errors.New(e.Message)}
}

func statusKind(status int) TransportKind {
	switch {
	case status == http.StatusNotFound:
		return KindRouteMissing
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServerFault
	}
	return KindDecode
}

func dialKind(ctx context.Context, err error) TransportKind {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindUnreachable
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
