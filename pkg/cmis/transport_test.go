package cmis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"
)

// recordedCall captures one request the fake transport served.
type recordedCall struct {
	method string
	url    string
	params url.Values
	form   map[string][]string
}

// fakeTransport serves scripted responses keyed by selector or cmisaction,
// recording every call for assertions. Unscripted requests fail loudly so a
// test never silently exercises the wrong path.
type fakeTransport struct {
	t *testing.T

	// bySelector maps a cmisselector value to a canned JSON response.
	bySelector map[string]string

	// byAction maps a cmisaction value to a canned JSON response.
	byAction map[string]string

	// serviceDoc answers requests that carry no selector at all.
	serviceDoc string

	// content answers GetContent calls.
	content     string
	contentType string

	calls []recordedCall
}

func newFakeTransport(t *testing.T) *fakeTransport {
	return &fakeTransport{
		t:          t,
		bySelector: map[string]string{},
		byAction:   map[string]string{},
	}
}

func (f *fakeTransport) Get(_ context.Context, rawURL string, params url.Values) (any, error) {
	f.calls = append(f.calls, recordedCall{method: "GET", url: rawURL, params: params})
	selector := params.Get("cmisselector")
	raw, ok := f.bySelector[selector]
	if !ok {
		if selector == "" && f.serviceDoc != "" {
			raw = f.serviceDoc
		} else {
			f.t.Fatalf("unscripted GET with selector %q", selector)
		}
	}
	return decodeCanned(f.t, raw), nil
}

func (f *fakeTransport) GetContent(_ context.Context, rawURL string, params url.Values) (io.ReadCloser, string, error) {
	f.calls = append(f.calls, recordedCall{method: "GET", url: rawURL, params: params})
	return io.NopCloser(strings.NewReader(f.content)), f.contentType, nil
}

func (f *fakeTransport) Post(_ context.Context, rawURL string, body io.Reader, contentType string, params url.Values) (any, error) {
	form := parseMultipart(f.t, body, contentType)
	f.calls = append(f.calls, recordedCall{method: "POST", url: rawURL, params: params, form: form})
	action := ""
	if v, ok := form["cmisaction"]; ok && len(v) > 0 {
		action = v[0]
	}
	raw, ok := f.byAction[action]
	if !ok {
		f.t.Fatalf("unscripted POST with cmisaction %q", action)
	}
	if raw == "" {
		return nil, nil
	}
	return decodeCanned(f.t, raw), nil
}

func (f *fakeTransport) lastCall() recordedCall {
	if len(f.calls) == 0 {
		f.t.Fatal("no calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func decodeCanned(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad canned response: %v", err)
	}
	return v
}

func parseMultipart(t *testing.T, body io.Reader, contentType string) map[string][]string {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parsing content type %q: %v", contentType, err)
	}
	reader := multipart.NewReader(body, params["boundary"])
	form := map[string][]string{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading multipart body: %v", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("reading part %q: %v", part.FormName(), err)
		}
		form[part.FormName()] = append(form[part.FormName()], string(data))
	}
	return form
}

// newTestClient wires a client and repository around the fake transport.
// The repository advertises the capabilities the caller lists.
func newTestClient(t *testing.T, transport *fakeTransport, capabilities map[string]any) (*Client, *Repository) {
	t.Helper()
	client, err := NewClient(Config{
		ServiceURL: "http://cmis.test/browser",
		Transport:  transport,
	})
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	if capabilities == nil {
		capabilities = map[string]any{}
	}
	caps := map[string]any{}
	for k, v := range capabilities {
		caps["capability"+k] = v
	}
	repo := newRepository(client, map[string]any{
		"repositoryId":   "repo1",
		"repositoryName": "Test Repository",
		"rootFolderId":   "root-id",
		"rootFolderUrl":  "http://cmis.test/browser/repo1/root",
		"repositoryUrl":  "http://cmis.test/browser/repo1",
		"capabilities":   caps,
	})
	return client, repo
}

// objectJSON renders a minimal raw object with the given id, base type and
// extra properties.
func objectJSON(id string, baseType string, extra map[string]any) string {
	props := map[string]any{
		"cmis:objectId":   map[string]any{"id": "cmis:objectId", "type": "id", "value": id},
		"cmis:baseTypeId": map[string]any{"id": "cmis:baseTypeId", "type": "id", "value": baseType},
		"cmis:name":       map[string]any{"id": "cmis:name", "type": "string", "value": "obj-" + id},
	}
	for k, v := range extra {
		props[k] = map[string]any{"id": k, "type": propTypeFor(v), "value": v}
	}
	raw, err := json.Marshal(map[string]any{"properties": props})
	if err != nil {
		panic(fmt.Sprintf("marshaling test object: %v", err))
	}
	return string(raw)
}

func propTypeFor(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case float64, int, int64:
		return "integer"
	}
	return "string"
}
