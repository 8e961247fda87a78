// Package stream provides DynamoDB Streams handlers for collection change feeds.
//
// A collection stored by blob.Dynamo is a single item, so every stream record
// carries the whole collection before and after the write. The handler decodes
// both images and reports which records were added, removed or modified, and
// which flattened paths of each modified record changed.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/arbor/blob"
	"github.com/jacentio/arbor/store"
	"github.com/jacentio/arbor/tree"
)

// RecordChange lists the flattened paths that differ between two versions of
// one record. Paths have no leading delimiter.
type RecordChange struct {
	ID    string
	Paths []string
}

// ChangeSet describes one write to a collection.
type ChangeSet struct {
	EventID    string
	EventName  string
	Key        string
	OldVersion int64
	NewVersion int64
	Added      []string
	Removed    []string
	Modified   []RecordChange
}

// Empty reports whether no record changed.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Sink receives every non-empty ChangeSet. Returning an error fails the batch.
type Sink func(ctx context.Context, cs ChangeSet) error

// Handler processes DynamoDB stream events of a collection table.
type Handler struct {
	codec  store.Codec
	delim  string
	sink   Sink
	logger *slog.Logger
}

// NewHandler creates a new stream handler. A nil codec decodes JSON.
func NewHandler(codec store.Codec, logger *slog.Logger) *Handler {
	if codec == nil {
		codec = store.JSONCodec{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		codec:  codec,
		delim:  tree.DefaultDelimiter,
		logger: logger,
	}
}

// SetSink sets the function receiving change sets.
func (h *Handler) SetSink(sink Sink) {
	h.sink = sink
}

// SetDelimiter sets the delimiter used for changed paths.
func (h *Handler) SetDelimiter(delim string) {
	if delim == "" {
		delim = tree.DefaultDelimiter
	}
	h.delim = delim
}

// HandleCollectionChange processes DynamoDB stream events of collection items.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleCollectionChange(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	switch record.EventName {
	case "INSERT", "MODIFY", "REMOVE":
	default:
		return nil
	}

	before, err := h.decodeImage(record.Change.OldImage)
	if err != nil {
		return fmt.Errorf("decode old image: %w", err)
	}
	after, err := h.decodeImage(record.Change.NewImage)
	if err != nil {
		return fmt.Errorf("decode new image: %w", err)
	}

	cs := Compare(before, after, h.delim)
	cs.EventID = record.EventID
	cs.EventName = record.EventName
	cs.Key = getStringAttr(record.Change.Keys, blob.AttrKey)
	cs.OldVersion = getNumberAttr(record.Change.OldImage, blob.AttrVersion)
	cs.NewVersion = getNumberAttr(record.Change.NewImage, blob.AttrVersion)

	if cs.Empty() {
		h.logger.Debug("collection write without record changes",
			"key", cs.Key,
			"version", cs.NewVersion,
		)
		return nil
	}

	h.logger.Info("collection changed",
		"key", cs.Key,
		"oldVersion", cs.OldVersion,
		"newVersion", cs.NewVersion,
		"added", len(cs.Added),
		"removed", len(cs.Removed),
		"modified", len(cs.Modified),
	)

	if h.sink == nil {
		return nil
	}
	if err := h.sink(ctx, cs); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}

// decodeImage decodes the collection held in an image. A missing image or data
// attribute is an empty collection.
func (h *Handler) decodeImage(image map[string]events.DynamoDBAttributeValue) (*tree.Value, error) {
	data := getBinaryAttr(image, blob.AttrData)
	if len(data) == 0 {
		return tree.EmptyMap(), nil
	}
	root, err := h.codec.Decode(data)
	if err != nil {
		return nil, &store.DecodeError{Codec: h.codec.Name(), Err: err}
	}
	if root.Kind() != tree.Mapping {
		if root.IsEmptyContainer() {
			return tree.EmptyMap(), nil
		}
		return nil, &store.DecodeError{
			Codec: h.codec.Name(),
			Err:   fmt.Errorf("collection root is a %s, not a mapping", root.Kind()),
		}
	}
	return root, nil
}

// Compare classifies the records of two collection roots. Added and modified
// IDs follow the order of after; removed IDs follow the order of before.
func Compare(before, after *tree.Value, delim string) ChangeSet {
	var cs ChangeSet
	for _, e := range after.Entries() {
		old, ok := before.Lookup(e.Key)
		if !ok {
			cs.Added = append(cs.Added, e.Key)
			continue
		}
		if paths := changedPaths(old, e.Value, delim); len(paths) > 0 {
			cs.Modified = append(cs.Modified, RecordChange{ID: e.Key, Paths: paths})
		}
	}
	for _, e := range before.Entries() {
		if _, ok := after.Lookup(e.Key); !ok {
			cs.Removed = append(cs.Removed, e.Key)
		}
	}
	return cs
}

// changedPaths returns the flattened paths whose leaves differ, in the order of
// after followed by paths that only exist in before.
func changedPaths(before, after *tree.Value, delim string) []string {
	oldFlat := before.Flatten(delim).Trimmed(delim)
	newFlat := after.Flatten(delim).Trimmed(delim)

	var paths []string
	for _, e := range newFlat.Entries() {
		if old, ok := oldFlat.Get(e.Path); !ok || !old.Equal(e.Value) {
			paths = append(paths, e.Path)
		}
	}
	for _, e := range oldFlat.Entries() {
		if _, ok := newFlat.Get(e.Path); !ok {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// getBinaryAttr extracts a binary attribute from a DynamoDB stream image.
func getBinaryAttr(image map[string]events.DynamoDBAttributeValue, key string) []byte {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeBinary {
		return v.Binary()
	}
	return nil
}
