package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"accounts/backend/internal/domain/media"
)

const (
	imageField       = "profileImage"
	multipartMemory  = 1 << 20
	maxJSONBodyBytes = 1 << 20
)

var errBadPayload = errors.New("invalid request payload")

// requestForm holds the submitted fields regardless of encoding. A nil value
// means the field was not sent.
type requestForm struct {
	fields map[string]*string
	image  *media.Upload
	file   multipart.File
}

func (f *requestForm) value(name string) *string {
	return f.fields[name]
}

func (f *requestForm) text(name string) string {
	if v := f.fields[name]; v != nil {
		return *v
	}
	return ""
}

func (f *requestForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

// readForm accepts multipart/form-data, application/x-www-form-urlencoded and
// JSON bodies. Only multipart bodies can carry a profile image.
func readForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*requestForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if r.ContentLength > maxBytes {
			return nil, &http.MaxBytesError{Limit: maxBytes}
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, err
		}
		form := &requestForm{fields: collect(r.MultipartForm.Value)}
		file, header, err := r.FormFile(imageField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return nil, err
		default:
			form.file = file
			form.image = &media.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}
		return form, nil
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return &requestForm{fields: collect(r.PostForm)}, nil
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		fields := map[string]*string{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, errBadPayload
		}
		return &requestForm{fields: fields}, nil
	}
}

func collect(values map[string][]string) map[string]*string {
	out := make(map[string]*string, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		out[key] = &v
	}
	return out
}
