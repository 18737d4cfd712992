package domain

import "slices"

// Blob is a single named payload produced by a unit.
type Blob struct {
	ID   string
	Data []byte
}

// Source is the result of one generation.
//
// Blobs are ordered and unique by ID. Complete is false when the source was
// assembled from partial generation and may lack blobs the unit can produce.
type Source struct {
	Blobs    []Blob
	Hash     ContentHash
	Complete bool
}

// NewSource builds a Source, keeping the last blob for each repeated ID at the
// position of its first occurrence.
func NewSource(blobs []Blob, hash ContentHash, complete bool) *Source {
	s := &Source{Hash: hash, Complete: complete, Blobs: make([]Blob, 0, len(blobs))}
	for _, b := range blobs {
		s.Upsert(b)
	}
	return s
}

// Get returns the blob with the given ID.
func (s *Source) Get(id string) (Blob, bool) {
	i := s.index(id)
	if i < 0 {
		return Blob{}, false
	}
	return s.Blobs[i], true
}

// Has reports whether a blob with the given ID is present.
func (s *Source) Has(id string) bool {
	return s.index(id) >= 0
}

// Upsert inserts b or replaces the blob with the same ID in place.
func (s *Source) Upsert(b Blob) {
	if i := s.index(b.ID); i >= 0 {
		s.Blobs[i] = b
		return
	}
	s.Blobs = append(s.Blobs, b)
}

// IDs returns blob IDs in order.
func (s *Source) IDs() []string {
	ids := make([]string, len(s.Blobs))
	for i, b := range s.Blobs {
		ids[i] = b.ID
	}
	return ids
}

// Filter narrows the source to a single blob. The boolean is false when the
// blob is not present.
func (s *Source) Filter(id string) (*Source, bool) {
	b, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return &Source{
		Blobs:    []Blob{b},
		Hash:     s.Hash,
		Complete: s.Complete && len(s.Blobs) == 1,
	}, true
}

// Clone returns a deep copy.
func (s *Source) Clone() *Source {
	if s == nil {
		return nil
	}
	out := &Source{Hash: s.Hash, Complete: s.Complete, Blobs: make([]Blob, len(s.Blobs))}
	for i, b := range s.Blobs {
		out.Blobs[i] = Blob{ID: b.ID, Data: slices.Clone(b.Data)}
	}
	return out
}

func (s *Source) index(id string) int {
	return slices.IndexFunc(s.Blobs, func(b Blob) bool { return b.ID == id })
}
