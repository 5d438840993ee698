// Package server exposes ticket submission over HTTP.
//
// Endpoints:
//
//	GET  /                 → HTML submission form
//	POST /enviar           → form fields mensaje, empleado → HTML result
//	POST /api/tickets      → SubmitRequest → SubmitResponse
//	GET  /api/departments  → list of department labels and files
//
// Errors map to status codes: invalid input 400, unknown department 422,
// classifier or embedding failure 502, department store failure 500.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/triage/internal/types"
)

// maxBodyBytes caps submission bodies; a ticket is a short message
const maxBodyBytes = 64 * 1024

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// TicketProcessor is the subset of processor.Processor the server needs
type TicketProcessor interface {
	Process(ctx context.Context, ticket, requester string) (types.Result, error)
	Departments() *types.DepartmentTable
}

// SubmitRequest is the body of POST /api/tickets
type SubmitRequest struct {
	Ticket    string `json:"ticket"`
	Requester string `json:"requester"`
}

// SubmitResponse is returned by POST /api/tickets
type SubmitResponse struct {
	Message    string `json:"message"`
	Department string `json:"department"`
	Duplicate  bool   `json:"duplicate"`
}

// ErrorResponse is returned with any non-2xx status
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// indexPage is the data rendered into the form template
type indexPage struct {
	Requester  string
	Ticket     string
	Result     string
	Department string
	Error      string
}

// Server serves the submission form and JSON API
type Server struct {
	addr      string
	processor TicketProcessor
	server    *http.Server
}

// New creates a server for processor listening on addr
func New(addr string, processor TicketProcessor) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}

	s := &Server{
		addr:      addr,
		processor: processor,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /enviar", s.handleFormSubmit)
	mux.HandleFunc("POST /api/tickets", s.handleAPISubmit)
	mux.HandleFunc("GET /api/departments", s.handleDepartments)

	s.server = &http.Server{
		Addr:    addr,
		Handler: requestIDMiddleware(mux),
		// Classification and embedding calls can take a while
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s, nil
}

// Handler returns the root handler, for httptest and embedding in other muxes
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening. It returns once the listener is bound and shuts
// the server down when ctx is canceled.
func (s *Server) Start(ctx context.Context) (net.Addr, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.addr, err)
	}
	log.Printf("Ticket server listening on %s", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] Ticket server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return ln.Addr(), nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}

// --- handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderIndex(w, http.StatusOK, indexPage{})
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		renderIndex(w, http.StatusBadRequest, indexPage{Error: "formulario inválido"})
		return
	}

	page := indexPage{
		Requester: r.PostForm.Get("empleado"),
		Ticket:    r.PostForm.Get("mensaje"),
	}

	result, err := s.processor.Process(r.Context(), page.Ticket, page.Requester)
	if err != nil {
		status := statusFor(err)
		logFailure(r, status, err)
		page.Error = clientMessage(r, status, err)
		renderIndex(w, status, page)
		return
	}

	page.Result = result.Message
	page.Department = result.Department
	renderIndex(w, http.StatusOK, page)
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req SubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := s.processor.Process(r.Context(), req.Ticket, req.Requester)
	if err != nil {
		status := statusFor(err)
		logFailure(r, status, err)
		writeError(w, r, status, clientMessage(r, status, err))
		return
	}

	writeJSON(w, http.StatusOK, SubmitResponse{
		Message:    result.Message,
		Department: result.Department,
		Duplicate:  result.Duplicate,
	})
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.processor.Departments().Departments())
}

// --- helpers ---

type requestIDKey struct{}

// requestIDMiddleware tags every request with an id, reusing X-Request-ID
// when the client sends one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// statusFor maps processing errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidTicket):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnknownDepartment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage hides server-side detail (paths, provider responses) behind
// a generic message for 5xx statuses; the full error is only logged
func clientMessage(r *http.Request, status int, err error) string {
	if status < 500 {
		return err.Error()
	}
	var msg string
	switch status {
	case http.StatusBadGateway:
		msg = "classification or embedding service unavailable"
	case http.StatusGatewayTimeout:
		msg = "request timed out"
	default:
		msg = "internal error"
	}
	return fmt.Sprintf("%s (request %s)", msg, requestID(r))
}

func logFailure(r *http.Request, status int, err error) {
	if status >= 500 {
		log.Printf("[ERROR] [%s] %s %s: %v", requestID(r), r.Method, r.URL.Path, err)
		return
	}
	log.Printf("[WARN] [%s] %s %s: %v", requestID(r), r.Method, r.URL.Path, err)
}

func renderIndex(w http.ResponseWriter, status int, page indexPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, page); err != nil {
		log.Printf("[ERROR] Rendering form: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: requestID(r)})
}
