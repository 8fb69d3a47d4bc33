package cmis

import (
	"context"
	"io"
	"net/url"
)

// Transport issues HTTP requests against a browser binding endpoint. The
// core consumes this narrow contract and never retries: a failed call
// propagates directly to the caller. Implementations are expected to map
// server-side failures onto the package's sentinel errors.
//
// The default implementation lives in pkg/cmis/httptransport.
type Transport interface {
	// Get issues a GET and returns the decoded JSON value, which may be an
	// object or an array depending on the selector.
	Get(ctx context.Context, url string, params url.Values) (any, error)

	// GetContent issues a GET for a binary content stream and returns the
	// body along with its content type. The caller owns the ReadCloser.
	GetContent(ctx context.Context, url string, params url.Values) (io.ReadCloser, string, error)

	// Post issues a POST with the given body and content type. It returns
	// the decoded JSON value, or nil when the response body is empty.
	Post(ctx context.Context, url string, body io.Reader, contentType string, params url.Values) (any, error)
}

// Selector values for the cmisselector query parameter sent by every read
// operation.
const (
	selectorObject          = "object"
	selectorParents         = "parents"
	selectorChildren        = "children"
	selectorDescendants     = "descendants"
	selectorFolderTree      = "foldertree"
	selectorRelationships   = "relationships"
	selectorVersions        = "versions"
	selectorCheckedOut      = "checkedOut"
	selectorContentChanges  = "contentChanges"
	selectorTypeDefinition  = "typeDefinition"
	selectorTypeChildren    = "typeChildren"
	selectorTypeDescendants = "typeDescendants"
	selectorContent         = "content"
	selectorRenditions      = "renditions"
)

// Action values for the cmisaction form field sent by every mutating
// operation.
const (
	actionUpdate             = "update"
	actionMove               = "move"
	actionDelete             = "delete"
	actionDeleteTree         = "deleteTree"
	actionCheckOut           = "checkOut"
	actionCancelCheckOut     = "cancelCheckOut"
	actionCheckIn            = "checkin"
	actionCreateDocument     = "createDocument"
	actionCreateFolder       = "createFolder"
	actionSetContent         = "setContent"
	actionDeleteContent      = "deleteContent"
	actionCreateRelationship = "createRelationship"
	actionApplyACL           = "applyACL"
	actionAddObjectToFolder  = "addObjectToFolder"
	actionRemoveObjectFromFolder = "removeObjectFromFolder"
	actionQuery              = "query"
)

const (
	paramSelector = "cmisselector"
	paramObjectID = "objectId"
	paramTypeID   = "typeId"
	paramDepth    = "depth"
)
