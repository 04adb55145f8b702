package keywords

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Batch is an ordered set of references scanned by the eligibility engine.
type Batch struct {
	Items []Reference
}

// NewBatch wraps refs without copying them.
func NewBatch(refs ...Reference) *Batch {
	return &Batch{Items: refs}
}

// LoadBatch reads every record of dir in listing order. The reference
// identifier is the file name. The first malformed record aborts the load.
func LoadBatch(dir string) (*Batch, error) {
	files, err := ListRecords(dir)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Items: make([]Reference, 0, len(files))}
	for _, file := range files {
		record, err := LoadRecord(file)
		if err != nil {
			return nil, err
		}
		batch.Items = append(batch.Items, Reference{ID: filepath.Base(file), Keywords: record.Keywords})
	}

	return batch, nil
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

// IDs returns the reference identifiers in batch order.
func (b *Batch) IDs() []string {
	ids := make([]string, 0, b.Len())
	if b == nil {
		return ids
	}
	for _, ref := range b.Items {
		ids = append(ids, ref.ID)
	}
	return ids
}

func (b *Batch) FindByID(id string) (Reference, bool) {
	if b == nil {
		return Reference{}, false
	}
	for _, ref := range b.Items {
		if ref.ID == id {
			return ref, true
		}
	}
	return Reference{}, false
}

// Exclude removes the references whose identifier is listed in ids, keeping
// the order of the remaining ones. It returns the removed identifiers.
func (b *Batch) Exclude(ids []string) []string {
	if b == nil || len(ids) == 0 {
		return nil
	}

	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}

	var removed []string
	kept := b.Items[:0:0]
	for _, ref := range b.Items {
		if _, ok := skip[ref.ID]; ok {
			removed = append(removed, ref.ID)
			continue
		}
		kept = append(kept, ref)
	}
	b.Items = kept

	return removed
}

// ExcludedJobs is the content of an exclude file.
type ExcludedJobs struct {
	Items []*ExcludedJob
}

// ExcludedJob is one entry of an exclude file.
type ExcludedJob struct {
	ID         string
	Role       string
	Reason     string
	ExcludedAt time.Time
}

// NewExcludedJobs builds exclude entries for ids, stamped with the current time.
func NewExcludedJobs(reason string, ids ...string) *ExcludedJobs {
	excluded := &ExcludedJobs{}
	now := time.Now().UTC()
	for _, id := range ids {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			ID:         id,
			Role:       RoleName(id),
			Reason:     reason,
			ExcludedAt: now,
		})
	}
	return excluded
}

// LoadExcludedJobs reads an exclude file. A missing or empty file yields an
// empty list.
func LoadExcludedJobs(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedJobs) Append(other *ExcludedJobs) {
	if other == nil {
		return
	}
	e.Items = append(e.Items, other.Items...)
}

// IDs returns the excluded identifiers.
func (e *ExcludedJobs) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, job := range e.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

// ToFile writes the list to path, replacing previous content.
func (e *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
