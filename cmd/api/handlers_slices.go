package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
)

// This file contains application methods which signatures match the http.HandlerFunc so
// they can be registered as endpoints to our router. These methods act as wrappers
// around the slices service. They are used to decouple transport dependent logic
// and issues from the business logic present in the service.

func (app *application) fileSelectorHandler(w http.ResponseWriter, r *http.Request) {
	files, err := app.slices.List(r.Context())
	if err != nil {
		app.encodeError(w, r, err)
		return
	}

	app.sendHTML(w, r, "file_selector.html", struct {
		Files []string
	}{
		Files: files,
	})
}

func (app *application) uploadFileHandler(w http.ResponseWriter, r *http.Request) {
	// The body is limited slightly above the maximum file size, to leave room for the
	// multipart framing. The service enforces the exact limit on the file content.
	r.Body = http.MaxBytesReader(w, r.Body, app.config.Resize.MaxUploadBytes+64*1024)

	filename, reader, err := readUpload(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			app.encodeError(w, r, err)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	file, err := app.slices.Upload(r.Context(), filename, reader)
	if err != nil {
		app.encodeError(w, r, err)
		return
	}

	app.sendJSON(w, r, http.StatusOK, env{
		"message": "File uploaded and resized successfully",
		"file":    file,
	}, nil)
}

func (app *application) listFilesHandler(w http.ResponseWriter, r *http.Request) {
	files, err := app.slices.List(r.Context())
	if err != nil {
		app.encodeError(w, r, err)
		return
	}
	if files == nil {
		files = []string{}
	}

	app.sendJSON(w, r, http.StatusOK, env{"files": files}, nil)
}

func (app *application) displayImageHandler(w http.ResponseWriter, r *http.Request) {
	img, ok := app.renderImage(w, r)
	if !ok {
		return
	}

	app.streamBytes(w, r, bytes.NewReader(img), http.Header{
		"Content-Type":   []string{"image/png"},
		"Content-Length": []string{fmt.Sprint(len(img))},
	})
}

func (app *application) viewImageHandler(w http.ResponseWriter, r *http.Request) {
	img, ok := app.renderImage(w, r)
	if !ok {
		return
	}

	qs := r.URL.Query()
	app.sendHTML(w, r, "view.html", struct {
		FileName string
		Start    string
		End      string
		Image    template.URL
	}{
		FileName: readUrlParam(r, "file_name"),
		Start:    qs.Get("start"),
		End:      qs.Get("end"),
		Image:    template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img)),
	})
}

// Shared by the display and view endpoints: read the file name and the optional
// depth range and render the file. Errors are already sent to the client when
// the returned bool is false.
func (app *application) renderImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	depthRange, err := readDepthRange(r.URL.Query())
	if err != nil {
		app.encodeError(w, r, err)
		return nil, false
	}

	img, err := app.slices.Render(r.Context(), readUrlParam(r, "file_name"), depthRange)
	if err != nil {
		app.encodeError(w, r, err)
		return nil, false
	}
	return img, true
}
