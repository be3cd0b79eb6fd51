package service

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// MultipartBodyPart is one part of a multipart/form-data body. FileName and
// MimeType are optional.
type MultipartBodyPart struct {
	Data     []byte
	Name     string
	FileName string
	MimeType string
}

// MultipartForm accumulates parts into a multipart/form-data payload.
type MultipartForm struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

// NewMultipartForm returns an empty form with a random boundary.
func NewMultipartForm() *MultipartForm {
	f := &MultipartForm{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

// Append adds a plain form field.
func (f *MultipartForm) Append(name string, data []byte) {
	f.write(partHeader(name, "", ""), data)
}

// AppendMIME adds a field with an explicit content type.
func (f *MultipartForm) AppendMIME(name, mimeType string, data []byte) {
	f.write(partHeader(name, "", mimeType), data)
}

// AppendFile adds a file field.
func (f *MultipartForm) AppendFile(name, fileName, mimeType string, data []byte) {
	f.write(partHeader(name, fileName, mimeType), data)
}

func (f *MultipartForm) write(h textproto.MIMEHeader, data []byte) {
	if f.err != nil {
		return
	}
	pw, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = pw.Write(data)
}

// Encode closes the form and returns the body and its Content-Type.
func (f *MultipartForm) Encode() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return f.buf.Bytes(), f.w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(name, fileName, mimeType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))
	if fileName != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(fileName))
	}
	h.Set("Content-Disposition", disposition)
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	return h
}

// AssembleMultipart validates that method can carry a multipart body and
// that parts is non-empty, then appends each part using the most specific
// form available: name+fileName+mimeType, name+mimeType, or name only.
// A file name without a MIME type is sent as a plain field.
func AssembleMultipart(method Method, parts []MultipartBodyPart) (*MultipartForm, error) {
	if !method.SupportsMultipart() {
		return nil, errMultipartNotSupported(method)
	}
	if len(parts) == 0 {
		return nil, &Error{Kind: KindEmptyMultipartBody}
	}

	form := NewMultipartForm()
	for _, p := range parts {
		switch {
		case p.MimeType != "" && p.FileName != "":
			form.AppendFile(p.Name, p.FileName, p.MimeType, p.Data)
		case p.MimeType != "":
			form.AppendMIME(p.Name, p.MimeType, p.Data)
		default:
			form.Append(p.Name, p.Data)
		}
	}
	return form, nil
}
