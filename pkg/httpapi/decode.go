package httpapi

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-playground/form"
)

var formDecoder = form.NewDecoder()

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// Decode fills dst from a JSON or urlencoded/multipart form body depending on
// the request content type. Form fields map through `form` struct tags.
func Decode(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
		return formDecoder.Decode(dst, r.Form)
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
		return formDecoder.Decode(dst, r.Form)
	default:
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
		return nil
	}
}
