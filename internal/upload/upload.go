// Package upload implements the upload encoder (component I): it
// inspects a method's declared upload slots, classifies each value as
// a local file, a remote URL, a platform-internal identifier, or an
// opaque passthrough, and — when local files are present — assembles a
// multipart/form-data body. Otherwise the request is encoded as plain
// JSON.
//
package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/compresr/bot-gateway/internal/methods"
)

// Encoding names the body shape Prepare produced.
type Encoding string

const (
	EncodingJSON      Encoding = "application/json"
	EncodingMultipart Encoding = "multipart/form-data"
)

// Result is what Prepare returns on success.
type Result struct {
	Encoding         Encoding
	Body             []byte
	ContentType      string // full header value, including boundary for multipart
	NormalizedParams map[string]any
}

// Error is a synthesised client-error condition from bad upload input,
// carrying enough detail to build a {ok:false, errorCode:400} envelope.
type Error struct {
	Description string
}

func (e *Error) Error() string { return e.Description }

var platformIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)
var urlPattern = regexp.MustCompile(`^https?://`)

type localFile struct {
	slotName string
	partName string
	path     string
}

// Prepare classifies every declared upload slot in params and, if any
// local files were found, assembles a multipart body. It never
// mutates params; NormalizedParams is a fresh copy with local-path
// values rewritten to attach:// sentinels.
func Prepare(desc *methods.Descriptor, params map[string]any) (*Result, error) {
	if len(desc.Uploads) == 0 {
		return jsonResult(params)
	}

	normalized := cloneParams(params)
	var files []localFile

	for _, slot := range desc.Uploads {
		raw, ok := params[slot.Name]
		if !ok {
			continue
		}
		switch slot.Kind {
		case methods.UploadSingle:
			s, isString := raw.(string)
			if !isString {
				continue
			}
			kind, resolved := classify(s)
			if kind == kindLocal {
				part := slot.Name
				files = append(files, localFile{slotName: slot.Name, partName: part, path: resolved})
				normalized[slot.Name] = "attach://" + part
			}
		case methods.UploadArrayOfObjects:
			arr, isArray := raw.([]any)
			if !isArray {
				continue
			}
			newArr := make([]any, len(arr))
			for i, elem := range arr {
				obj, isObj := elem.(map[string]any)
				if !isObj {
					newArr[i] = elem
					continue
				}
				newObj := cloneParams(obj)
				if v, has := obj[slot.NestedField]; has {
					if s, isString := v.(string); isString {
						kind, resolved := classify(s)
						if kind == kindLocal {
							part := fmt.Sprintf("%s_%d", slot.NestedField, i)
							files = append(files, localFile{slotName: slot.Name, partName: part, path: resolved})
							newObj[slot.NestedField] = "attach://" + part
						}
					}
				}
				newArr[i] = newObj
			}
			normalized[slot.Name] = newArr
		case methods.UploadNestedObject:
			obj, isObj := raw.(map[string]any)
			if !isObj {
				continue
			}
			newObj := cloneParams(obj)
			for field, v := range obj {
				s, isString := v.(string)
				if !isString {
					continue
				}
				kind, resolved := classify(s)
				if kind == kindLocal {
					part := field
					files = append(files, localFile{slotName: slot.Name, partName: part, path: resolved})
					newObj[field] = "attach://" + part
				}
			}
			normalized[slot.Name] = newObj
		}
	}

	if len(files) == 0 {
		return jsonResult(normalized)
	}

	for _, f := range files {
		info, err := os.Stat(f.path)
		if err != nil || !info.Mode().IsRegular() {
			return nil, &Error{Description: fmt.Sprintf("upload path does not exist or is not a regular file: %s", f.path)}
		}
	}

	return multipartResult(normalized, files)
}

type valueKind int

const (
	kindPassthrough valueKind = iota
	kindLocal
	kindRemoteURL
	kindPlatformID
)

// classify implements §4.I's detection rules in priority order.
func classify(s string) (valueKind, string) {
	if strings.HasPrefix(s, "file://") {
		return kindLocal, strings.TrimPrefix(s, "file://")
	}
	if filepath.IsAbs(s) {
		if info, err := os.Stat(s); err == nil && info.Mode().IsRegular() {
			return kindLocal, s
		}
	}
	if urlPattern.MatchString(s) {
		return kindRemoteURL, s
	}
	if !strings.Contains(s, "/") && platformIDPattern.MatchString(s) {
		return kindPlatformID, s
	}
	return kindPassthrough, s
}

func jsonResult(params map[string]any) (*Result, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, &Error{Description: fmt.Sprintf("failed to encode parameters: %v", err)}
	}
	return &Result{
		Encoding:         EncodingJSON,
		Body:             body,
		ContentType:      string(EncodingJSON),
		NormalizedParams: params,
	}, nil
}

func multipartResult(params map[string]any, files []localFile) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, v := range params {
		isFileField := false
		for _, f := range files {
			if f.slotName == name {
				isFileField = true
				break
			}
		}
		if isFileField {
			continue
		}
		text, err := fieldText(v)
		if err != nil {
			return nil, &Error{Description: fmt.Sprintf("failed to encode field %q: %v", name, err)}
		}
		if err := w.WriteField(name, text); err != nil {
			return nil, &Error{Description: fmt.Sprintf("failed to write field %q: %v", name, err)}
		}
	}

	for _, f := range files {
		part, err := w.CreatePart(filePartHeader(f.partName, filepath.Base(f.path)))
		if err != nil {
			return nil, &Error{Description: fmt.Sprintf("failed to create part for %q: %v", f.partName, err)}
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, &Error{Description: fmt.Sprintf("failed to read %q: %v", f.path, err)}
		}
		if _, err := part.Write(data); err != nil {
			return nil, &Error{Description: fmt.Sprintf("failed to write part for %q: %v", f.partName, err)}
		}
	}

	if err := w.Close(); err != nil {
		return nil, &Error{Description: fmt.Sprintf("failed to close multipart writer: %v", err)}
	}

	return &Result{
		Encoding:         EncodingMultipart,
		Body:             buf.Bytes(),
		ContentType:      w.FormDataContentType(),
		NormalizedParams: params,
	}, nil
}

func filePartHeader(partName, filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, partName, filename))
	h.Set("Content-Type", mimeTypeFor(filename))
	return h
}

func fieldText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func cloneParams(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
