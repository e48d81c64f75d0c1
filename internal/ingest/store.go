package ingest

import (
	"sync"

	"trustcast/internal/models"
)

// Snapshot is the device-record set of one upload.
type Snapshot struct {
	File    *models.UploadedFile
	Records []models.DeviceRecord
}

// Store holds the current snapshot. Reads that start later win: a commit
// carrying an older ticket than the one already applied is discarded.
type Store struct {
	mu      sync.RWMutex
	issued  uint64
	applied uint64
	current *Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Begin issues a ticket for an upload that is about to be read.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	return s.issued
}

// Commit replaces the snapshot wholesale. It reports false when a newer
// upload has already been committed.
func (s *Store) Commit(ticket uint64, file *models.UploadedFile, records []models.DeviceRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket < s.applied {
		return false
	}

	s.applied = ticket
	s.current = &Snapshot{File: file, Records: records}
	return true
}

// Current returns the committed snapshot, or nil before the first upload.
// Callers must not modify the returned slice.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Records returns the committed records, or an empty slice.
func (s *Store) Records() []models.DeviceRecord {
	snap := s.Current()
	if snap == nil {
		return []models.DeviceRecord{}
	}
	return snap.Records
}

// Header returns the column names of the committed upload, or nil.
func (s *Store) Header() []string {
	file := s.File()
	if file == nil {
		return nil
	}
	return file.Columns
}

// File returns the committed upload, or nil.
func (s *Store) File() *models.UploadedFile {
	snap := s.Current()
	if snap == nil {
		return nil
	}
	return snap.File
}
