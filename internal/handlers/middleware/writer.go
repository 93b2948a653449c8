package middleware

import (
	"net/http"
)

// Remember status and size of response written by wrapped handler
type recordingWriter struct {
	http.ResponseWriter
	status int
	size   int

	wroteHeader bool
}

func newRecordingWriter(w http.ResponseWriter) *recordingWriter {
	return &recordingWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	size, err := w.ResponseWriter.Write(p)
	w.size += size
	return size, err
}

func (w *recordingWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
	}
}

// Let http.ResponseController reach the original writer
func (w *recordingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
