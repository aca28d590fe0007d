package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"pixelflow/api"
)

// multipartOverhead leaves room for boundaries and the text fields next to
// the image itself.
const multipartOverhead = 1 << 20

type uploadError struct {
	status int
	body   api.Error
	cause  error
}

func (e *uploadError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.body.Error, e.cause)
	}
	return e.body.Error
}

func tooLarge(limit int64, cause error) *uploadError {
	return &uploadError{
		status: http.StatusRequestEntityTooLarge,
		body:   api.Error{Code: "image_too_large", Error: fmt.Sprintf("Image exceeds the %s upload limit", humanize.IBytes(uint64(limit)))},
		cause:  cause,
	}
}

// readImageUpload reads the "image" form file, rejecting bodies above limit
// before they are buffered.
func readImageUpload(ctx *gin.Context, limit int64) ([]byte, *uploadError) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit+multipartOverhead)

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return nil, tooLarge(limit, err)
		case errors.Is(err, http.ErrMissingFile):
			return nil, &uploadError{status: http.StatusBadRequest, body: errMissingImage, cause: err}
		default:
			return nil, &uploadError{status: http.StatusBadRequest, body: errInvalidRequest, cause: err}
		}
	}
	if fileHeader.Size > limit {
		return nil, tooLarge(limit, nil)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, body: errInvalidRequest, cause: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, body: errInvalidRequest, cause: err}
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit, nil)
	}
	if len(data) == 0 {
		return nil, &uploadError{status: http.StatusBadRequest, body: errMissingImage}
	}
	if mime, ok := imageMIME(data); !ok {
		return nil, &uploadError{status: http.StatusBadRequest, body: errInvalidImage, cause: fmt.Errorf("detected %s", mime)}
	}
	return data, nil
}

// imageMIME returns the sniffed media type of data without parameters, and
// whether it is an image.
func imageMIME(data []byte) (string, bool) {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime, len(data) > 0 && strings.HasPrefix(mime, "image/")
}

// dataURL renders bytes as a self-describing inline image string.
func dataURL(data []byte) string {
	mime, _ := imageMIME(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
