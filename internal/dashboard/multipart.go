package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// UploadField is the multipart field carrying the file.
const UploadField = "file"

// ErrNoFile is returned when a multipart request has no file part.
var ErrNoFile = errors.New("no file selected")

// UploadFileName returns the client file name of the upload in r. The
// parts are streamed and their bodies discarded, so file content is never
// buffered. Other fields (the configuration panel) are skipped.
func UploadFileName(r *http.Request) (string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", fmt.Errorf("read multipart: %w", err)
	}
	name := ""
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read multipart: %w", err)
		}
		if part.FormName() == UploadField && name == "" {
			name = part.FileName()
		}
		part.Close()
	}
	if name == "" {
		return "", ErrNoFile
	}
	return name, nil
}
