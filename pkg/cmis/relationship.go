package cmis

import "context"

// Relationship is the relationship variant of Object. Its source and
// target endpoints come from the cmis:sourceId and cmis:targetId
// properties.
type Relationship struct {
	Object
}

// BaseType always reports cmis:relationship for a Relationship.
func (r *Relationship) BaseType() BaseType { return BaseTypeRelationship }

// SourceID returns the relationship's source object id.
func (r *Relationship) SourceID(ctx context.Context) (string, error) {
	return r.endpointID(ctx, "cmis:sourceId", "SourceID")
}

// TargetID returns the relationship's target object id.
func (r *Relationship) TargetID(ctx context.Context) (string, error) {
	return r.endpointID(ctx, "cmis:targetId", "TargetID")
}

func (r *Relationship) endpointID(ctx context.Context, prop, op string) (string, error) {
	props, err := r.Properties(ctx)
	if err != nil {
		return "", err
	}
	id, ok := props[prop].ID()
	if !ok || id == "" {
		return "", opError(op, ErrInvariant, "relationship lacks "+prop)
	}
	return id, nil
}

// Source fetches the relationship's source object.
func (r *Relationship) Source(ctx context.Context) (CmisObject, error) {
	id, err := r.SourceID(ctx)
	if err != nil {
		return nil, err
	}
	return r.repo.GetObject(ctx, id)
}

// Target fetches the relationship's target object.
func (r *Relationship) Target(ctx context.Context) (CmisObject, error) {
	id, err := r.TargetID(ctx)
	if err != nil {
		return nil, err
	}
	return r.repo.GetObject(ctx, id)
}
