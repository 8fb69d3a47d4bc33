package cmis

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_CheckoutCheckinLifecycle(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["checkOut"] = objectJSON("pwc-1", "cmis:document", nil)
	ft.byAction["checkin"] = objectJSON("doc-1-v2", "cmis:document", nil)
	client, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}

	pwc, err := doc.Checkout(ctx)
	require.NoError(t, err)
	pwcID, err := pwc.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pwc-1", pwcID)
	assert.Equal(t, []string{"doc-1"}, ft.lastCall().form["objectId"])

	newVersion, err := pwc.Checkin(ctx, "fixed the totals", true, CheckinOptions{
		Content:     strings.NewReader("v2 content"),
		ContentType: "text/plain",
	})
	require.NoError(t, err)

	form := ft.lastCall().form
	assert.Equal(t, []string{"checkin"}, form["cmisaction"])
	assert.Equal(t, []string{"pwc-1"}, form["objectId"])
	assert.Equal(t, []string{"true"}, form["major"])
	assert.Equal(t, []string{"fixed the totals"}, form["checkinComment"])
	assert.Equal(t, []string{"v2 content"}, form["content"])

	id, err := newVersion.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-1-v2", id)
}

func TestDocument_CheckinMinor(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["checkin"] = objectJSON("doc-1-v1.1", "cmis:document", nil)
	client, repo := newTestClient(t, ft, nil)

	pwc := &Document{Object: *newObject(client, repo, "pwc-1", nil)}
	_, err := pwc.Checkin(context.Background(), "", false, CheckinOptions{})
	require.NoError(t, err)

	form := ft.lastCall().form
	assert.Equal(t, []string{"false"}, form["major"])
	assert.NotContains(t, form, "checkinComment")
}

func TestDocument_CancelCheckout(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["cancelCheckOut"] = ""
	client, repo := newTestClient(t, ft, nil)

	pwc := &Document{Object: *newObject(client, repo, "pwc-1", nil)}
	require.NoError(t, pwc.CancelCheckout(context.Background()))
	assert.Equal(t, []string{"pwc-1"}, ft.lastCall().form["objectId"])
}

func TestDocument_IsCheckedOut_AlwaysReloads(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["object"] = objectJSON("doc-1", "cmis:document", map[string]any{
		"cmis:isVersionSeriesCheckedOut": false,
	})
	client, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	out, err := doc.IsCheckedOut(ctx)
	require.NoError(t, err)
	assert.False(t, out)
	assert.Len(t, ft.calls, 1)

	// checkout state changed behind our back; the accessor must notice
	ft.bySelector["object"] = objectJSON("doc-1", "cmis:document", map[string]any{
		"cmis:isVersionSeriesCheckedOut": true,
	})
	out, err = doc.IsCheckedOut(ctx)
	require.NoError(t, err)
	assert.True(t, out)
	assert.Len(t, ft.calls, 2)
}

func TestDocument_PrivateWorkingCopy(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["object"] = objectJSON("doc-1", "cmis:document", nil)
	client, repo := newTestClient(t, ft, nil)

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	_, err := doc.PrivateWorkingCopy(context.Background())
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDocument_LatestVersion(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["object"] = objectJSON("doc-1-v3", "cmis:document", nil)
	client, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}

	latest, err := doc.LatestVersion(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "latest", ft.lastCall().params.Get("returnVersion"))
	id, err := latest.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-1-v3", id)

	_, err = doc.LatestVersion(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "latestmajor", ft.lastCall().params.Get("returnVersion"))

	// the original handle's identity is untouched
	id, err = doc.ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
}

func TestDocument_AllVersions(t *testing.T) {
	ft := newFakeTransport(t)
	// the versions response is a bare list of raw objects
	ft.bySelector["versions"] = `[` +
		objectJSON("doc-1-v2", "cmis:document", nil) + `,` +
		objectJSON("doc-1-v1", "cmis:document", nil) + `]`
	client, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	rs, err := doc.AllVersions(ctx)
	require.NoError(t, err)
	results, err := rs.Results()
	require.NoError(t, err)
	require.Len(t, results, 2)

	id, err := results[0].ObjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-1-v2", id)
}

func TestDocument_ContentStream_Gated(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["object"] = `{
		"properties": {
			"cmis:objectId": {"id": "cmis:objectId", "type": "id", "value": "doc-1"}
		},
		"allowableActions": {"canGetContentStream": false}
	}`
	client, repo := newTestClient(t, ft, nil)

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	_, _, err := doc.ContentStream(context.Background())
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestDocument_ContentStream(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["object"] = `{
		"properties": {
			"cmis:objectId": {"id": "cmis:objectId", "type": "id", "value": "doc-1"}
		},
		"allowableActions": {"canGetContentStream": true}
	}`
	ft.content = "hello content"
	ft.contentType = "text/plain"
	client, repo := newTestClient(t, ft, nil)

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	body, contentType, err := doc.ContentStream(context.Background())
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello content", string(data))
	assert.Equal(t, "text/plain", contentType)
	assert.Equal(t, "content", ft.lastCall().params.Get("cmisselector"))
}

func TestDocument_SetContentStream_SendsChangeToken(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["setContent"] = objectJSON("doc-1", "cmis:document", nil)
	client, repo := newTestClient(t, ft, nil)
	ctx := context.Background()

	data := decodeCanned(t, objectJSON("doc-1", "cmis:document", map[string]any{
		"cmis:changeToken": "token-42",
	})).(map[string]any)
	doc := &Document{Object: *newObject(client, repo, "doc-1", data)}

	err := doc.SetContentStream(ctx, strings.NewReader("new bytes"), "application/octet-stream")
	require.NoError(t, err)

	form := ft.lastCall().form
	assert.Equal(t, []string{"token-42"}, form["changeToken"])
	assert.Equal(t, []string{"new bytes"}, form["content"])
}

func TestDocument_DeleteContentStream_NoTokenWhenUnloaded(t *testing.T) {
	ft := newFakeTransport(t)
	ft.byAction["deleteContent"] = ""
	client, repo := newTestClient(t, ft, nil)

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	require.NoError(t, doc.DeleteContentStream(context.Background()))
	assert.NotContains(t, ft.lastCall().form, "changeToken")
}

func TestDocument_Renditions_Gated(t *testing.T) {
	ft := newFakeTransport(t)
	client, repo := newTestClient(t, ft, map[string]any{"Renditions": "none"})

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	_, err := doc.Renditions(context.Background())
	require.ErrorIs(t, err, ErrNotSupported)
	assert.Empty(t, ft.calls)
}

func TestDocument_Renditions(t *testing.T) {
	ft := newFakeTransport(t)
	ft.bySelector["renditions"] = `[
		{"streamId": "thumb-1", "mimeType": "image/png", "kind": "cmis:thumbnail",
		 "length": 512, "height": 100, "width": 100, "title": "Thumbnail"}
	]`
	client, repo := newTestClient(t, ft, map[string]any{"Renditions": "read"})

	doc := &Document{Object: *newObject(client, repo, "doc-1", nil)}
	renditions, err := doc.Renditions(context.Background())
	require.NoError(t, err)
	require.Len(t, renditions, 1)
	assert.Equal(t, "thumb-1", renditions[0].StreamID)
	assert.Equal(t, "image/png", renditions[0].MimeType)
	assert.Equal(t, int64(512), renditions[0].Length)
	assert.Equal(t, "*", ft.lastCall().params.Get("renditionFilter"))
}
