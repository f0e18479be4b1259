// Package model defines the data model shared by the capture, analysis,
// storage, and export layers: captured HTTP exchanges, user actions,
// correlated timelines, the endpoint blueprint, and the navigation graph.
package model

import (
	"strings"
	"time"
)

// Exchange is one captured HTTP request paired with its optional response.
// Exchanges are created once by the capture source and never mutated.
type Exchange struct {
	ID          string    `json:"exchange_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Protocol    string    `json:"protocol,omitempty"`
	Request     Request   `json:"request"`
	Response    *Response `json:"response,omitempty"`
}

// Request is the request half of an exchange.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Response is the response half of an exchange. A nil Response on an
// Exchange means the request failed or was still pending at capture end.
type Response struct {
	Status           int               `json:"status"`
	Headers          map[string]string `json:"headers,omitempty"`
	Body             string            `json:"body,omitempty"`
	RedirectLocation string            `json:"redirect_location,omitempty"`
}

// Completed reports whether a response was captured for this exchange.
func (e *Exchange) Completed() bool {
	return e.Response != nil
}

// Latency returns the request/response round-trip time, or zero when the
// exchange never completed.
func (e *Exchange) Latency() time.Duration {
	if e.Response == nil || e.CompletedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Header returns a request header value by case-insensitive name.
func (r *Request) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Header returns a response header value by case-insensitive name.
func (r *Response) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ContentType returns the response content type, without parameters.
func (r *Response) ContentType() string {
	ct := r.Header("Content-Type")
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

// IsRedirect reports whether the response carries a 3xx redirect.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// IsSuccess reports whether the response status is in [200, 299].
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// ActionType classifies a captured user interaction.
type ActionType string

// Action types supplied by the capture source.
const (
	ActionClick    ActionType = "click"
	ActionSubmit   ActionType = "submit"
	ActionInput    ActionType = "input"
	ActionNavigate ActionType = "navigate"
	ActionScroll   ActionType = "scroll"
)

// UserAction is one raw user interaction observed during the capture.
type UserAction struct {
	ID        string            `json:"action_id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      ActionType        `json:"action_type"`
	PageURL   string            `json:"page_url,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// Navigation is a page transition observed during the capture.
type Navigation struct {
	ID        string    `json:"navigation_id"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
	FromURL   string    `json:"from_url,omitempty"`
	Status    int       `json:"status,omitempty"`
}

// RequestEvent is a raw request record from a capture source that reports
// requests and responses as separate streams.
type RequestEvent struct {
	ID        string            `json:"request_id"`
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
	Protocol  string            `json:"protocol,omitempty"`
}

// ResponseEvent is a raw response record paired to a request by the
// correlation engine.
type ResponseEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	URL       string            `json:"url"`
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
}

// ExchangeRef is a lightweight reference to an exchange held by a
// correlated action. Full exchange data stays with the capture batch.
type ExchangeRef struct {
	ExchangeID string `json:"exchange_id"`
	URL        string `json:"url"`
	Method     string `json:"method"`
	Status     int    `json:"status,omitempty"`
	IsRedirect bool   `json:"is_redirect,omitempty"`
}

// NavigationOutcome records where an action took the user, including any
// redirect hops observed in the same correlation window.
type NavigationOutcome struct {
	URL           string   `json:"url"`
	Status        int      `json:"status,omitempty"`
	RedirectChain []string `json:"redirect_chain,omitempty"`
}

// CorrelatedAction is a user action annotated with the exchanges and
// navigation attributed to it within its correlation window. An action
// with no exchanges in its window is valid, not an error.
type CorrelatedAction struct {
	ActionID   string             `json:"action_id"`
	Timestamp  time.Time          `json:"timestamp"`
	Type       ActionType         `json:"action_type"`
	Payload    map[string]string  `json:"payload,omitempty"`
	Navigation *NavigationOutcome `json:"navigation,omitempty"`
	Exchanges  []ExchangeRef      `json:"exchanges"`
}
