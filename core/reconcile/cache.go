package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"flightplan-bridge/core/identity"
	"flightplan-bridge/core/storage"
	"flightplan-bridge/core/utils"

	"github.com/minio/minio-go/v7"
)

// Entry is what the cache remembers about one roster flight after its last
// successful push.
type Entry struct {
	// Fingerprint of the core that was pushed.
	Fingerprint string `json:"fp"`

	// Core is the pushed core. Nil for entries written by early versions,
	// which stored the fingerprint only.
	Core *Core `json:"core,omitempty"`

	// PlanID is the planning id of the plan, nil when unknown.
	PlanID *int64 `json:"apg_id"`

	// Key is the identity of the pushed plan.
	Key *identity.Key `json:"key"`

	// Undeletable is set once the planning system refused to delete the plan.
	// Such plans are ignored by presence so a fresh one can be created.
	Undeletable bool `json:"undeletable,omitempty"`

	// IgnoredIDs are earlier plans for this flight that could not be deleted.
	IgnoredIDs []int64 `json:"ignored_ids,omitempty"`
}

// UnmarshalJSON reads both the current object shape and the legacy bare
// fingerprint string.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var fp string
		if err := json.Unmarshal(data, &fp); err != nil {
			return err
		}
		*e = Entry{Fingerprint: fp}
		return nil
	}

	var raw struct {
		Fingerprint string        `json:"fp"`
		Core        *Core         `json:"core"`
		PlanID      any           `json:"apg_id"`
		Key         *identity.Key `json:"key"`
		Undeletable bool          `json:"undeletable"`
		Forbidden   bool          `json:"apg_delete_forbidden"`
		IgnoredIDs  []int64       `json:"ignored_ids"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		Fingerprint: raw.Fingerprint,
		Core:        raw.Core,
		Key:         raw.Key,
		Undeletable: raw.Undeletable || raw.Forbidden,
		IgnoredIDs:  raw.IgnoredIDs,
	}
	if id, ok := utils.ToInt64(raw.PlanID); ok && id != 0 {
		e.PlanID = &id
	}
	return nil
}

// Cache maps roster flight ids to entries. It is the only state that
// survives between passes.
type Cache map[string]*Entry

// IDs returns the flight ids in sorted order.
func (c Cache) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ignored returns every planning id presence must not match: undeletable
// plans and the ids carried forward from them.
func (c Cache) Ignored() map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, e := range c {
		if e == nil {
			continue
		}
		if e.Undeletable && e.PlanID != nil {
			out[*e.PlanID] = struct{}{}
		}
		for _, id := range e.IgnoredIDs {
			out[id] = struct{}{}
		}
	}
	return out
}

func decodeCache(r io.Reader) (Cache, error) {
	var c Cache
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Cache{}, nil
		}
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if c == nil {
		c = Cache{}
	}
	for id, e := range c {
		if e == nil {
			delete(c, id)
		}
	}
	return c, nil
}

func encodeCache(c Cache) ([]byte, error) {
	if c == nil {
		c = Cache{}
	}
	return json.MarshalIndent(c, "", "  ")
}

// Store persists the cache. Load of a missing cache returns an empty one.
type Store interface {
	Load(ctx context.Context) (Cache, error)
	Save(ctx context.Context, c Cache) error
	Clear(ctx context.Context) error
}

// FileStore keeps the cache in a local JSON file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the cache file.
func (s *FileStore) Load(_ context.Context) (Cache, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Cache{}, nil
		}
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()
	return decodeCache(f)
}

// Save writes the cache to a temp file next to Path and renames it over
// Path, so readers never observe a partial file.
func (s *FileStore) Save(_ context.Context, c Cache) error {
	data, err := encodeCache(c)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}

// Clear removes the cache file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

// ObjectStore keeps the cache as a single object in the bucket. A PUT
// replaces the object whole.
type ObjectStore struct {
	Client storage.Client
	Bucket string
	Object string
}

// NewObjectStore returns a store for bucket/object.
func NewObjectStore(client storage.Client, bucket, object string) *ObjectStore {
	return &ObjectStore{Client: client, Bucket: bucket, Object: object}
}

// Load downloads the cache object.
func (s *ObjectStore) Load(ctx context.Context) (Cache, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.Object, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return Cache{}, nil
		}
		return nil, fmt.Errorf("get cache object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return Cache{}, nil
		}
		return nil, fmt.Errorf("read cache object: %w", err)
	}
	return decodeCache(bytes.NewReader(data))
}

// Save uploads the cache object.
func (s *ObjectStore) Save(ctx context.Context, c Cache) error {
	data, err := encodeCache(c)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	_, err = s.Client.PutObject(ctx, s.Bucket, s.Object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put cache object: %w", err)
	}
	return nil
}

// Clear deletes the cache object.
func (s *ObjectStore) Clear(ctx context.Context) error {
	err := s.Client.RemoveObject(ctx, s.Bucket, s.Object, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("remove cache object: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
