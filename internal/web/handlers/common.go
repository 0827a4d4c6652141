package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/visual-search/internal/constants"
)

const (
	errNoImage        = "no image file provided"
	errNotAnImage     = "only image files are allowed"
	errProductMissing = "product not found"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// uploadedImage is an image file read from a multipart request.
type uploadedImage struct {
	Data        []byte
	ContentType string
	Filename    string
}

// uploadError carries the client-facing message for a rejected upload.
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// imageContentType returns the image media type of a part, sniffing the
// content when the client sent no specific type.
func imageContentType(declared string, data []byte) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	return mediaType, strings.HasPrefix(mediaType, "image/")
}

// readImageUpload parses a multipart request and returns the "image" part.
// maxBytes limits the image itself; the request body may carry a little more
// for the other form fields.
func readImageUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*uploadedImage, error) {
	tooLarge := &uploadError{
		status:  http.StatusBadRequest,
		message: fmt.Sprintf("file too large (max %dMB)", maxBytes>>20),
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(constants.MultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, &uploadError{status: http.StatusBadRequest, message: errNoImage}
		}
		return nil, &uploadError{status: http.StatusBadRequest, message: "failed to parse multipart form"}
	}

	file, header, err := r.FormFile(constants.ImageFormField)
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, message: errNoImage}
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, message: "failed to read image"}
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge
	}
	if len(data) == 0 {
		return nil, &uploadError{status: http.StatusBadRequest, message: errNoImage}
	}

	contentType, ok := imageContentType(header.Header.Get("Content-Type"), data)
	if !ok {
		return nil, &uploadError{status: http.StatusBadRequest, message: errNotAnImage}
	}

	return &uploadedImage{Data: data, ContentType: contentType, Filename: header.Filename}, nil
}

// respondUploadError writes the client-facing message for a rejected upload.
func respondUploadError(w http.ResponseWriter, err error) {
	var upErr *uploadError
	if errors.As(err, &upErr) {
		respondError(w, upErr.status, upErr.message)
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}

// parseIntParam reads an optional integer form or query value.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	s := strings.TrimSpace(r.FormValue(name))
	if s == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
