package cmis

import (
	"context"
	"io"
)

// Document is the document variant of Object. It adds versioning, content
// stream and rendition operations.
type Document struct {
	Object
}

// BaseType always reports cmis:document for a Document, even before the
// raw data is loaded.
func (d *Document) BaseType() BaseType { return BaseTypeDocument }

// Checkout creates a private working copy of this document and returns it.
// The original document object is left untouched; reload it to observe the
// checked-out state.
func (d *Document) Checkout(ctx context.Context) (*Document, error) {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	form := newForm(actionCheckOut).set(paramObjectID, id)
	result, err := d.client.post(ctx, rootURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("Checkout", ErrInvariant, "checkOut returned no object")
	}
	return &Document{Object: *newObject(d.client, d.repo, "", data)}, nil
}

// CancelCheckout discards this document's private working copy. After the
// call the PWC id is gone; holders of a PWC handle must not use it again.
func (d *Document) CancelCheckout(ctx context.Context) error {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionCancelCheckOut).set(paramObjectID, id)
	_, err = d.client.post(ctx, rootURL, form)
	return err
}

// CheckinOptions carries the optional pieces of a checkin.
type CheckinOptions struct {
	// Properties are applied to the new version.
	Properties map[string]any

	// Content and ContentType replace the content stream in the new
	// version. A nil Content keeps the PWC's current content.
	Content     io.Reader
	ContentType string
}

// Checkin checks this private working copy in as a new version and returns
// the resulting document. major selects a major version; there is no
// server-side default, the caller always decides.
func (d *Document) Checkin(ctx context.Context, comment string, major bool, opts CheckinOptions) (*Document, error) {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	form := newForm(actionCheckIn).
		set(paramObjectID, id).
		set("major", formatPropValue(major))
	if comment != "" {
		form.set("checkinComment", comment)
	}
	form.setProperties(opts.Properties, 0)
	if opts.Content != nil {
		form.withContent(opts.Content, opts.ContentType)
	}
	result, err := d.client.post(ctx, rootURL, form)
	if err != nil {
		return nil, err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return nil, opError("Checkin", ErrInvariant, "checkin returned no object")
	}
	return &Document{Object: *newObject(d.client, d.repo, "", data)}, nil
}

// IsCheckedOut reports whether any version of this document is checked
// out. Checkout state is volatile, so the document is always reloaded
// before answering.
func (d *Document) IsCheckedOut(ctx context.Context) (bool, error) {
	if err := d.Reload(ctx); err != nil {
		return false, err
	}
	props, err := d.Properties(ctx)
	if err != nil {
		return false, err
	}
	out, _ := props["cmis:isVersionSeriesCheckedOut"].Bool()
	return out, nil
}

// CheckedOutBy returns the user holding the checkout, reloading first
// since checkout state is volatile.
func (d *Document) CheckedOutBy(ctx context.Context) (string, error) {
	if err := d.Reload(ctx); err != nil {
		return "", err
	}
	props, err := d.Properties(ctx)
	if err != nil {
		return "", err
	}
	by, _ := props["cmis:versionSeriesCheckedOutBy"].String()
	return by, nil
}

// PrivateWorkingCopy returns a handle to the version series' PWC, or
// ErrObjectNotFound when the series is not checked out. The state is
// volatile, so the document is reloaded before answering.
func (d *Document) PrivateWorkingCopy(ctx context.Context) (*Document, error) {
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	props, err := d.Properties(ctx)
	if err != nil {
		return nil, err
	}
	pwcID, ok := props["cmis:versionSeriesCheckedOutId"].ID()
	if !ok || pwcID == "" {
		return nil, opError("PrivateWorkingCopy", ErrObjectNotFound, "version series is not checked out")
	}
	return &Document{Object: *newObject(d.client, d.repo, pwcID, nil)}, nil
}

// LatestVersion fetches the latest version of this document's version
// series, or the latest major version when major is true.
func (d *Document) LatestVersion(ctx context.Context, major bool, opts ...RequestOption) (*Document, error) {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	selector := "latest"
	if major {
		selector = "latestmajor"
	}
	latest := newObject(d.client, d.repo, id, nil)
	all := append([]RequestOption{WithReturnVersion(selector)}, opts...)
	if err := latest.Reload(ctx, all...); err != nil {
		return nil, err
	}
	return &Document{Object: *latest}, nil
}

// PropertiesOfLatestVersion returns the property map of the latest
// version without disturbing this handle's own cached state.
func (d *Document) PropertiesOfLatestVersion(ctx context.Context, major bool, opts ...RequestOption) (map[string]Value, error) {
	latest, err := d.LatestVersion(ctx, major, opts...)
	if err != nil {
		return nil, err
	}
	return latest.Properties(ctx)
}

// AllVersions returns the version series, newest first, as the server
// orders it.
func (d *Document) AllVersions(ctx context.Context, opts ...RequestOption) (*ResultSet, error) {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorVersions),
	}, opts...)
	result, err := d.client.get(ctx, rootURL, all)
	if err != nil {
		return nil, err
	}
	// the versions response is a bare list of raw objects
	return newResultSet(d.client, d.repo, map[string]any{"objects": result}, objectListSerializer{}), nil
}

// ContentStream returns the document's content stream and its media type.
// The canGetContentStream allowable action gates the call; a document
// without content fails fast with ErrNotSupported and no content request
// is sent. The caller owns the ReadCloser.
func (d *Document) ContentStream(ctx context.Context) (io.ReadCloser, string, error) {
	actions, err := d.AllowableActions(ctx)
	if err != nil {
		return nil, "", err
	}
	if !actions["canGetContentStream"] {
		return nil, "", opError("GetContentStream", ErrNotSupported, "document has no retrievable content stream")
	}
	id, err := d.ObjectID(ctx)
	if err != nil {
		return nil, "", err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return nil, "", err
	}
	params := applyOptions(d.client.defaults, []RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorContent),
	})
	return d.client.transport.GetContent(ctx, rootURL, params)
}

// SetContentStream replaces the document's content stream. The change
// token, when the document carries one, travels with the request so a
// concurrent update is detected server-side.
func (d *Document) SetContentStream(ctx context.Context, content io.Reader, contentType string) error {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionSetContent).set(paramObjectID, id)
	if token := d.changeToken(ctx); token != "" {
		form.set("changeToken", token)
	}
	form.withContent(content, contentType)
	result, err := d.client.post(ctx, rootURL, form)
	if err != nil {
		return err
	}
	if data, ok := result.(map[string]any); ok {
		d.data = data
		d.props = nil
		d.actions = nil
	}
	return nil
}

// DeleteContentStream removes the document's content stream.
func (d *Document) DeleteContentStream(ctx context.Context) error {
	id, err := d.ObjectID(ctx)
	if err != nil {
		return err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return err
	}
	form := newForm(actionDeleteContent).set(paramObjectID, id)
	if token := d.changeToken(ctx); token != "" {
		form.set("changeToken", token)
	}
	result, err := d.client.post(ctx, rootURL, form)
	if err != nil {
		return err
	}
	if data, ok := result.(map[string]any); ok {
		d.data = data
		d.props = nil
		d.actions = nil
	}
	return nil
}

// changeToken reads cmis:changeToken from already-loaded properties. A
// document that was never loaded has no token to send, which is fine:
// the token is only advisory.
func (d *Document) changeToken(ctx context.Context) string {
	if d.data == nil {
		return ""
	}
	props, err := d.Properties(ctx)
	if err != nil {
		return ""
	}
	token, _ := props["cmis:changeToken"].String()
	return token
}

// Renditions lists the document's alternate representations. The
// Renditions capability must be read; none or absent fails fast without a
// request.
func (d *Document) Renditions(ctx context.Context, opts ...RequestOption) ([]Rendition, error) {
	caps := d.repo.Capabilities()
	if v, _ := caps["Renditions"].(string); v == "" || v == "none" {
		return nil, opError("GetRenditions", ErrNotSupported, "repository does not support renditions")
	}
	id, err := d.ObjectID(ctx)
	if err != nil {
		return nil, err
	}
	rootURL, err := d.repo.RootFolderURL()
	if err != nil {
		return nil, err
	}
	all := append([]RequestOption{
		WithParam(paramObjectID, id),
		WithParam(paramSelector, selectorRenditions),
		WithRenditionFilter("*"),
	}, opts...)
	result, err := d.client.get(ctx, rootURL, all)
	if err != nil {
		return nil, err
	}
	raw, ok := result.([]any)
	if !ok {
		return nil, opError("GetRenditions", ErrInvariant, "renditions response is not a list")
	}
	renditions := make([]Rendition, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r, err := parseRendition(entry)
		if err != nil {
			return nil, err
		}
		renditions = append(renditions, r)
	}
	return renditions, nil
}

// Paths returns every repository path this document is filed under, built
// from its parents' paths and this document's relative path segments.
func (d *Document) Paths(ctx context.Context) ([]string, error) {
	parents, err := d.ObjectParents(ctx, WithParam("includeRelativePathSegment", "true"))
	if err != nil {
		return nil, err
	}
	results, err := parents.Results()
	if err != nil {
		return nil, err
	}
	rawParents, _ := parents.data["objects"].([]any)
	var paths []string
	for i, parent := range results {
		props, err := parent.Properties(ctx)
		if err != nil {
			return nil, err
		}
		parentPath, _ := props["cmis:path"].String()
		segment := ""
		if i < len(rawParents) {
			if entry, ok := rawParents[i].(map[string]any); ok {
				segment = stringField(entry, "relativePathSegment")
			}
		}
		if parentPath == "" || segment == "" {
			continue
		}
		if parentPath == "/" {
			paths = append(paths, "/"+segment)
		} else {
			paths = append(paths, parentPath+"/"+segment)
		}
	}
	return paths, nil
}
