package parameter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// File document fields.
const (
	fieldName      = "name"
	fieldValue     = "value"
	fieldVersion   = "version"
	fieldUpdatedAt = "updated_at"
)

// FileStore persists the parameter to a JSON file on disk.
// The document is a protobuf Struct encoded with protojson so the gRPC API and
// the file share one representation.
type FileStore struct {
	// name is the parameter key recorded in the document.
	name string
	// path is the filesystem location of the JSON document.
	path string
	// clock stamps writes.
	clock clock.Clock
	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// NewFileStore creates a store that reads/writes JSON at the provided path.
func NewFileStore(name, path string, clk clock.Clock) *FileStore {
	if clk == nil {
		clk = clock.NewClock()
	}

	return &FileStore{
		name:  name,
		path:  filepath.Clean(path),
		clock: clk,
	}
}

// Get reads the parameter from disk.
func (f *FileStore) Get(_ context.Context) (*Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.load()
}

// Put writes the parameter to disk, honoring expectedVersion.
func (f *FileStore) Put(_ context.Context, value scale.Scale, expectedVersion int64) (*Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var current int64

	existing, err := f.load()

	switch {
	case err == nil:
		current = existing.Version
	case errors.Is(err, ErrNotFound):
		// First write.
	default:
		return nil, err
	}

	if expectedVersion != Unconditional && expectedVersion != current {
		return nil, ErrConflict
	}

	next := &Value{
		Scale:     value,
		Version:   current + 1,
		UpdatedAt: f.clock.Now().UTC(),
	}

	if err = f.save(next); err != nil {
		return nil, err
	}

	return next, nil
}

// load reads and decodes the document. Callers hold mu.
func (f *FileStore) load() (*Value, error) {
	contents, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read parameter file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode parameter file: %w", err)
	}

	fields := document.GetFields()

	stored, err := parseStored(fields[fieldValue].GetStringValue())
	if err != nil {
		return nil, err
	}

	result := &Value{
		Scale:   stored,
		Version: int64(fields[fieldVersion].GetNumberValue()),
	}

	if raw := fields[fieldUpdatedAt].GetStringValue(); raw != "" {
		if result.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("decode parameter timestamp: %w", err)
		}
	}

	return result, nil
}

// save encodes and writes the document. Callers hold mu.
func (f *FileStore) save(value *Value) error {
	document, err := structpb.NewStruct(map[string]any{
		fieldName:      f.name,
		fieldValue:     value.Scale.String(),
		fieldVersion:   value.Version,
		fieldUpdatedAt: value.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode parameter: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode parameter: %w", err)
	}

	if err = os.WriteFile(f.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write parameter file: %w", err)
	}

	return nil
}
