package livesync

import (
	"bytes"
	"net/http"
)

// resultWriter captures what the page handler writes for a navigation.
type resultWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResultWriter() *resultWriter {
	return &resultWriter{header: make(http.Header)}
}

func (w *resultWriter) Header() http.Header { return w.header }

func (w *resultWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *resultWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *resultWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *resultWriter) redirect() (string, bool) {
	s := w.statusCode()
	if s < 300 || s >= 400 {
		return "", false
	}
	loc := w.header.Get("Location")
	return loc, loc != ""
}
