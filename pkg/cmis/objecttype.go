package cmis

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// typeData is the wire shape of a type definition, minus the property
// definitions which keep their own decoder.
type typeData struct {
	ID                       string `mapstructure:"id"`
	LocalName                string `mapstructure:"localName"`
	LocalNamespace           string `mapstructure:"localNamespace"`
	DisplayName              string `mapstructure:"displayName"`
	QueryName                string `mapstructure:"queryName"`
	Description              string `mapstructure:"description"`
	BaseID                   string `mapstructure:"baseId"`
	Creatable                bool   `mapstructure:"creatable"`
	Fileable                 bool   `mapstructure:"fileable"`
	Queryable                bool   `mapstructure:"queryable"`
	FulltextIndexed          bool   `mapstructure:"fulltextIndexed"`
	IncludedInSupertypeQuery bool   `mapstructure:"includedInSupertypeQuery"`
	ControllablePolicy       bool   `mapstructure:"controllablePolicy"`
	ControllableACL          bool   `mapstructure:"controllableACL"`
}

// PropertyDefinition is the static descriptor of one property of a type
// definition. Immutable once constructed from server data.
type PropertyDefinition struct {
	ID             string `mapstructure:"id"`
	LocalName      string `mapstructure:"localName"`
	LocalNamespace string `mapstructure:"localNamespace"`
	DisplayName    string `mapstructure:"displayName"`
	QueryName      string `mapstructure:"queryName"`
	Description    string `mapstructure:"description"`
	PropertyType   string `mapstructure:"propertyType"`
	Cardinality    string `mapstructure:"cardinality"`
	Updatability   string `mapstructure:"updatability"`
	Inherited      bool   `mapstructure:"inherited"`
	Required       bool   `mapstructure:"required"`
	Queryable      bool   `mapstructure:"queryable"`
	Orderable      bool   `mapstructure:"orderable"`
	OpenChoice     bool   `mapstructure:"openChoice"`
}

// ObjectType is a CMIS type definition such as cmis:document or a vendor
// subtype. Accessors lazily trigger a full reload when no data has been
// loaded; a reload always replaces the whole snapshot, property definitions
// included; there is no partial merge.
type ObjectType struct {
	client *Client
	repo   *Repository

	typeID  string
	data    map[string]any
	decoded *typeData
}

func newObjectType(client *Client, repo *Repository, typeID string, data map[string]any) *ObjectType {
	return &ObjectType{client: client, repo: repo, typeID: typeID, data: data}
}

// Reload refetches the complete type definition and replaces the previous
// snapshot wholesale.
func (t *ObjectType) Reload(ctx context.Context) error {
	id, err := t.TypeID(ctx)
	if err != nil {
		return err
	}
	repoURL, err := t.repo.RepositoryURL()
	if err != nil {
		return err
	}
	result, err := t.client.get(ctx, repoURL, []RequestOption{
		WithParam(paramSelector, selectorTypeDefinition),
		WithParam(paramTypeID, id),
	})
	if err != nil {
		return err
	}
	data, ok := result.(map[string]any)
	if !ok {
		return opError("ReloadType", ErrInvariant, "type definition response is not a JSON object")
	}
	t.data = data
	t.decoded = nil
	return nil
}

func (t *ObjectType) ensureLoaded(ctx context.Context) error {
	if t.data != nil {
		return nil
	}
	return t.Reload(ctx)
}

// decode memoizes the typed view of the raw snapshot.
func (t *ObjectType) decode(ctx context.Context) (*typeData, error) {
	if t.decoded != nil {
		return t.decoded, nil
	}
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	var d typeData
	if err := mapstructure.Decode(t.data, &d); err != nil {
		return nil, fmt.Errorf("decoding type definition: %w", err)
	}
	t.decoded = &d
	return t.decoded, nil
}

// TypeID returns the type's identifier, loading the definition when the
// type was constructed without one.
func (t *ObjectType) TypeID(ctx context.Context) (string, error) {
	if t.typeID != "" {
		return t.typeID, nil
	}
	if t.data == nil {
		return "", opError("TypeID", ErrInvalidArgument, "type has neither an id nor loaded data")
	}
	id := stringField(t.data, "id")
	if id == "" {
		return "", opError("TypeID", ErrInvariant, "type definition lacks an id")
	}
	t.typeID = id
	return id, nil
}

func (t *ObjectType) LocalName(ctx context.Context) (string, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return "", err
	}
	return d.LocalName, nil
}

func (t *ObjectType) LocalNamespace(ctx context.Context) (string, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return "", err
	}
	return d.LocalNamespace, nil
}

func (t *ObjectType) DisplayName(ctx context.Context) (string, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return "", err
	}
	return d.DisplayName, nil
}

func (t *ObjectType) QueryName(ctx context.Context) (string, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return "", err
	}
	return d.QueryName, nil
}

func (t *ObjectType) Description(ctx context.Context) (string, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return "", err
	}
	return d.Description, nil
}

// BaseID returns the base type this type derives from.
func (t *ObjectType) BaseID(ctx context.Context) (BaseType, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return BaseTypeUnknown, err
	}
	return BaseType(d.BaseID), nil
}

func (t *ObjectType) IsCreatable(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.Creatable, nil
}

func (t *ObjectType) IsFileable(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.Fileable, nil
}

func (t *ObjectType) IsQueryable(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.Queryable, nil
}

func (t *ObjectType) IsFulltextIndexed(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.FulltextIndexed, nil
}

func (t *ObjectType) IsIncludedInSupertypeQuery(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.IncludedInSupertypeQuery, nil
}

func (t *ObjectType) IsControllablePolicy(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.ControllablePolicy, nil
}

func (t *ObjectType) IsControllableACL(ctx context.Context) (bool, error) {
	d, err := t.decode(ctx)
	if err != nil {
		return false, err
	}
	return d.ControllableACL, nil
}

// PropertyDefinitions returns the property descriptors keyed by property
// id, rebuilt from the latest raw snapshot on every call. When the current
// snapshot lacks property definitions (type lists omit them unless asked)
// the full definition is refetched first.
func (t *ObjectType) PropertyDefinitions(ctx context.Context) (map[string]PropertyDefinition, error) {
	if t.data == nil || t.data["propertyDefinitions"] == nil {
		if err := t.Reload(ctx); err != nil {
			return nil, err
		}
	}
	raw, ok := t.data["propertyDefinitions"].(map[string]any)
	if !ok {
		return nil, opError("PropertyDefinitions", ErrInvariant, "type definition lacks propertyDefinitions")
	}
	defs := make(map[string]PropertyDefinition, len(raw))
	for id, entry := range raw {
		data, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		var def PropertyDefinition
		if err := mapstructure.Decode(data, &def); err != nil {
			return nil, fmt.Errorf("decoding property definition %s: %w", id, err)
		}
		defs[id] = def
	}
	return defs, nil
}
