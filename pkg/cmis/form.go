package cmis

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strconv"
	"time"
)

// sortedKeys returns the map's keys in sorted order so form payloads are
// deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formField is one name/value pair of a cmisaction form. Field order is
// preserved on the wire: some servers are picky about indexed property
// pairs arriving in order.
type formField struct {
	name  string
	value string
}

// formBuilder assembles the multipart/form-data payload for a mutating
// request.
type formBuilder struct {
	fields      []formField
	content     io.Reader
	contentType string
}

func newForm(action string) *formBuilder {
	return &formBuilder{fields: []formField{{name: "cmisaction", value: action}}}
}

func (f *formBuilder) set(name, value string) *formBuilder {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// setProperties appends the given property map as indexed propertyId[n] /
// propertyValue[n] pairs, starting at the given index. Slice values expand
// to propertyValue[n][m] pairs. It returns the next free index.
func (f *formBuilder) setProperties(props map[string]any, start int) int {
	i := start
	for _, id := range sortedKeys(props) {
		f.set(fmt.Sprintf("propertyId[%d]", i), id)
		switch vals := props[id].(type) {
		case []any:
			for j, v := range vals {
				f.set(fmt.Sprintf("propertyValue[%d][%d]", i, j), formatPropValue(v))
			}
		case []string:
			for j, v := range vals {
				f.set(fmt.Sprintf("propertyValue[%d][%d]", i, j), v)
			}
		default:
			f.set(fmt.Sprintf("propertyValue[%d]", i), formatPropValue(props[id]))
		}
		i++
	}
	return i
}

// withContent attaches a content stream to the form. The part's filename is
// taken from the cmis:name property pair when one is present.
func (f *formBuilder) withContent(r io.Reader, contentType string) *formBuilder {
	f.content = r
	f.contentType = contentType
	return f
}

// encode produces the multipart body and its content type.
func (f *formBuilder) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fileName := ""
	for i, field := range f.fields {
		if f.content != nil && field.value == "cmis:name" {
			// the matching propertyValue carries the document name
			if i+1 < len(f.fields) {
				fileName = f.fields[i+1].value
			}
		}
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("writing form field %q: %w", field.name, err)
		}
	}

	if f.content != nil {
		contentType := f.contentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := createContentPart(w, fileName, contentType)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.content); err != nil {
			return nil, "", fmt.Errorf("writing content part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing multipart form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func createContentPart(w *multipart.Writer, fileName, contentType string) (io.Writer, error) {
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="content"; filename=%q`, fileName),
	}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating content part: %w", err)
	}
	return part, nil
}

// formatPropValue renders a property value for the form encoding.
func formatPropValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", v)
}
