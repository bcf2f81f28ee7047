package mongodb

import (
	"errors"
	"strings"

	"buildmarket/internal/gateway/domain/model"
	apperrors "buildmarket/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// buildFilter translates equality criteria into a MongoDB filter. Every key
// is conjoined; no range, negation, or OR support exists at this layer.
func buildFilter(criteria map[string]interface{}) bson.M {
	filter := bson.M{}
	for field, value := range criteria {
		filter[field] = value
	}
	return filter
}

// buildFindOptions translates sort and limit. The limit is always set; the
// query is normalized before it reaches this point.
func buildFindOptions(q model.Query) *options.FindOptions {
	opts := options.Find().SetLimit(int64(q.Limit))
	if field, descending := q.SortField(); field != "" {
		direction := 1
		if descending {
			direction = -1
		}
		opts.SetSort(bson.D{{Key: field, Value: direction}})
	}
	return opts
}

// idFilter addresses a document by its key. Store-assigned ids are ObjectID
// hex; uid-keyed user documents use the uid string directly.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

// Server error codes that indicate the query needs an index the operator has
// not provisioned (in-memory sort limit exceeded, hinted index missing).
var indexErrorCodes = map[int32]bool{
	292:   true, // QueryExceededMemoryLimitNoDiskUseAllowed
	17007: true, // sort stage buffered data over the memory limit
}

// classifyQueryError maps store-side planner failures to ErrQueryUnsupported
// so callers see an operational condition, not a logic bug. Anything else
// passes through untouched.
func classifyQueryError(err error) error {
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if indexErrorCodes[cmdErr.Code] || strings.Contains(strings.ToLower(cmdErr.Message), "index") {
			return apperrors.NewQueryError(cmdErr.Message).WithCause(apperrors.ErrQueryUnsupported).WithComponent("entity_store")
		}
	}
	return err
}

// decodeEntity converts a raw document into an Entity: the document key is
// merged in as the id field and driver container types are normalized to
// plain Go values.
func decodeEntity(raw bson.M) model.Entity {
	entity := make(model.Entity, len(raw))
	for key, value := range raw {
		if key == "_id" {
			entity[model.FieldID] = idToString(value)
			continue
		}
		entity[key] = normalizeValue(value)
	}
	return entity
}

func idToString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case primitive.M:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	default:
		return v
	}
}
