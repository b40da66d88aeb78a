package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"syscall"

	"github.com/branchweb/branchweb-go/internal/core/domain"
)

// fileChunkSize is the write size for file downloads.
const fileChunkSize = 4096

// Envelope is the JSON body of every envelope response.
type Envelope struct {
	Status       string `json:"status"`
	ResponseCode int    `json:"response_code"`
	Payload      any    `json:"payload"`
}

// NewEnvelope builds the envelope for status and payload.
func NewEnvelope(status domain.Status, payload any) Envelope {
	return Envelope{
		Status:       status.String(),
		ResponseCode: status.Code(),
		Payload:      payload,
	}
}

// Response is what a handler asks the dispatcher to send.
//
// Use JSON, Success, Raw or File to build one.
type Response interface {
	write(w http.ResponseWriter) error
}

// jsonResponse is an envelope sent with transport status 200.
type jsonResponse struct {
	status  domain.Status
	payload any
}

// JSON returns an envelope response.
func JSON(status domain.Status, payload any) Response {
	return jsonResponse{status: status, payload: payload}
}

// Success returns a SUCCESS envelope carrying payload.
func Success(payload any) Response {
	return JSON(domain.StatusSuccess, payload)
}

func (j jsonResponse) write(w http.ResponseWriter) error {
	body, err := json.Marshal(NewEnvelope(j.status, j.payload))
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if rec, ok := w.(envelopeRecorder); ok {
		rec.recordEnvelope(j.status)
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}

// rawResponse is an unwrapped text/html body.
type rawResponse struct {
	httpStatus int
	body       string
}

// Raw returns body as text/html with the given transport status.
func Raw(httpStatus int, body string) Response {
	return rawResponse{httpStatus: httpStatus, body: body}
}

func (r rawResponse) write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(r.httpStatus)
	_, err := io.WriteString(w, r.body)
	return err
}

// fileResponse streams a download.
type fileResponse struct {
	name    string
	size    int64
	content io.Reader
}

// File returns a download of size bytes read from content, named name.
// If content is an io.Closer it is closed after sending.
func File(name string, size int64, content io.Reader) Response {
	return fileResponse{name: name, size: size, content: content}
}

func (f fileResponse) write(w http.ResponseWriter) error {
	if c, ok := f.content.(io.Closer); ok {
		defer c.Close()
	}
	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.FormatInt(f.size, 10))
	h.Set("Content-Disposition", `filename="`+f.name+`"`)
	w.WriteHeader(http.StatusOK)

	buf := make([]byte, fileChunkSize)
	_, err := io.CopyBuffer(onlyWriter{w}, io.LimitReader(f.content, f.size), buf)
	return err
}

// onlyWriter hides ReaderFrom so CopyBuffer honours the chunk size.
type onlyWriter struct {
	io.Writer
}

// envelopeRecorder is implemented by response writers that track the
// envelope status for logging and metrics.
type envelopeRecorder interface {
	recordEnvelope(domain.Status)
}

// isClientGone reports whether err means the peer closed the connection.
func isClientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
