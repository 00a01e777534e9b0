package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/anBertoli/slice-vault/pkg/validator"
	"github.com/anBertoli/slice-vault/pkg/welllog"
)

// The name of the multipart form field holding the uploaded file.
const uploadField = "file"

var errNoFile = fmt.Errorf("the request must contain a %q form file or a raw body", uploadField)

// Extract a string value from the URL params provided by the used router.
func readUrlParam(r *http.Request, param string) string {
	return mux.Vars(r)[param]
}

// Extract the optional depth range from the query string. Both 'start' and 'end' must
// be provided (or neither) and they must be valid numbers, otherwise a validator error
// is returned.
func readDepthRange(qs url.Values) (*welllog.DepthRange, error) {
	start, end := qs.Get("start"), qs.Get("end")
	if start == "" && end == "" {
		return nil, nil
	}

	v := validator.New()
	v.Check(start != "", "start", "must be provided together with end")
	v.Check(end != "", "end", "must be provided together with start")

	startValue, err := strconv.ParseFloat(start, 64)
	v.Check(start == "" || err == nil, "start", "must be a number")
	endValue, err := strconv.ParseFloat(end, 64)
	v.Check(end == "" || err == nil, "end", "must be a number")

	if !v.Ok() {
		return nil, v
	}
	return &welllog.DepthRange{Start: startValue, End: endValue}, nil
}

// The readUpload helper returns the uploaded file name and content. Multipart requests
// carry the file in the 'file' form field, the content of the part is streamed and not
// buffered on disk. Any other request is considered a raw upload, named after the
// 'name' query parameter.
func readUpload(r *http.Request) (string, io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return r.URL.Query().Get("name"), r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, errNoFile
		}
		if err != nil {
			return "", nil, err
		}
		if part.FormName() == uploadField {
			return part.FileName(), part, nil
		}
		part.Close()
	}
}
