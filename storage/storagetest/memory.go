// Package storagetest provides in-memory implementations of the storage
// interfaces for tests that do not want a real DynamoDB endpoint.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
)

type ElectionStore struct {
	mu    sync.Mutex
	items map[string]*storage.Election

	// FailUpdate makes the next Update calls return this error, for
	// crash-mid-transition tests.
	FailUpdate error
}

func NewElectionStore() *ElectionStore {
	return &ElectionStore{items: make(map[string]*storage.Election)}
}

func (s *ElectionStore) Get(_ context.Context, id string) (*storage.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *ElectionStore) GetAll(_ context.Context) ([]*storage.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*storage.Election, 0, len(s.items))
	for _, e := range s.items {
		copied := *e
		all = append(all, &copied)
	}
	return all, nil
}

func (s *ElectionStore) Create(_ context.Context, election *storage.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[election.ID]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	copied := *election
	s.items[election.ID] = &copied
	return nil
}

func (s *ElectionStore) Update(_ context.Context, election *storage.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != nil {
		return s.FailUpdate
	}
	copied := *election
	s.items[election.ID] = &copied
	return nil
}

func (s *ElectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *ElectionStore) FindDueForPopulation(_ context.Context, now time.Time) ([]*storage.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*storage.Election
	for _, e := range s.items {
		if !e.IsPopulated && !e.StartTime.After(now) {
			copied := *e
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (s *ElectionStore) FindDueForClose(_ context.Context, now time.Time) ([]*storage.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*storage.Election
	for _, e := range s.items {
		if e.IsPopulated && !e.EndTime.After(now) {
			copied := *e
			due = append(due, &copied)
		}
	}
	return due, nil
}

type VoterListStore struct {
	mu    sync.Mutex
	items map[string]*storage.VoterList
}

func NewVoterListStore() *VoterListStore {
	return &VoterListStore{items: make(map[string]*storage.VoterList)}
}

func (s *VoterListStore) Get(_ context.Context, name string) (*storage.VoterList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.items[name]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return copyVoterList(list), nil
}

func (s *VoterListStore) GetAll(_ context.Context) ([]*storage.VoterList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*storage.VoterList, 0, len(s.items))
	for _, list := range s.items {
		all = append(all, copyVoterList(list))
	}
	return all, nil
}

func (s *VoterListStore) Create(_ context.Context, list *storage.VoterList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[list.Name]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	s.items[list.Name] = copyVoterList(list)
	return nil
}

func (s *VoterListStore) Update(_ context.Context, list *storage.VoterList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[list.Name] = copyVoterList(list)
	return nil
}

func (s *VoterListStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, name)
	return nil
}

type CandidateListStore struct {
	mu    sync.Mutex
	items map[string]*storage.CandidateList
}

func NewCandidateListStore() *CandidateListStore {
	return &CandidateListStore{items: make(map[string]*storage.CandidateList)}
}

func (s *CandidateListStore) Get(_ context.Context, name string) (*storage.CandidateList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.items[name]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return copyCandidateList(list), nil
}

func (s *CandidateListStore) GetAll(_ context.Context) ([]*storage.CandidateList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*storage.CandidateList, 0, len(s.items))
	for _, list := range s.items {
		all = append(all, copyCandidateList(list))
	}
	return all, nil
}

func (s *CandidateListStore) Create(_ context.Context, list *storage.CandidateList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[list.Name]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	s.items[list.Name] = copyCandidateList(list)
	return nil
}

func (s *CandidateListStore) Update(_ context.Context, list *storage.CandidateList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[list.Name] = copyCandidateList(list)
	return nil
}

func (s *CandidateListStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, name)
	return nil
}

type VoterSetStore struct {
	mu    sync.Mutex
	items map[string]*storage.ElectionVoterSet

	CreateCalls int
	FailCreate  error
}

func NewVoterSetStore() *VoterSetStore {
	return &VoterSetStore{items: make(map[string]*storage.ElectionVoterSet)}
}

func (s *VoterSetStore) Get(_ context.Context, electionID string) (*storage.ElectionVoterSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.items[electionID]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return copyVoterSet(set), nil
}

func (s *VoterSetStore) Create(_ context.Context, set *storage.ElectionVoterSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.FailCreate != nil {
		return s.FailCreate
	}
	if _, ok := s.items[set.ElectionID]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	s.items[set.ElectionID] = copyVoterSet(set)
	return nil
}

func (s *VoterSetStore) Update(_ context.Context, set *storage.ElectionVoterSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[set.ElectionID]
	if !ok || existing.Version != set.Version {
		return storage.ErrVersionConflict
	}
	set.Version++
	s.items[set.ElectionID] = copyVoterSet(set)
	return nil
}

func (s *VoterSetStore) Delete(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, electionID)
	return nil
}

type CandidateSetStore struct {
	mu    sync.Mutex
	items map[string]*storage.ElectionCandidateSet

	CreateCalls int
	FailCreate  error
}

func NewCandidateSetStore() *CandidateSetStore {
	return &CandidateSetStore{items: make(map[string]*storage.ElectionCandidateSet)}
}

func (s *CandidateSetStore) Get(_ context.Context, electionID string) (*storage.ElectionCandidateSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.items[electionID]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return copyCandidateSet(set), nil
}

func (s *CandidateSetStore) Create(_ context.Context, set *storage.ElectionCandidateSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.FailCreate != nil {
		return s.FailCreate
	}
	if _, ok := s.items[set.ElectionID]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	s.items[set.ElectionID] = copyCandidateSet(set)
	return nil
}

func (s *CandidateSetStore) Update(_ context.Context, set *storage.ElectionCandidateSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[set.ElectionID]
	if !ok || existing.Version != set.Version {
		return storage.ErrVersionConflict
	}
	set.Version++
	s.items[set.ElectionID] = copyCandidateSet(set)
	return nil
}

func (s *CandidateSetStore) Delete(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, electionID)
	return nil
}

type ArchiveStore struct {
	mu    sync.Mutex
	items map[string]*storage.ArchivedElection
}

func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{items: make(map[string]*storage.ArchivedElection)}
}

func (s *ArchiveStore) Get(_ context.Context, electionID string) (*storage.ArchivedElection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	archived, ok := s.items[electionID]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	copied := *archived
	return &copied, nil
}

func (s *ArchiveStore) GetAll(_ context.Context) ([]*storage.ArchivedElection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*storage.ArchivedElection, 0, len(s.items))
	for _, archived := range s.items {
		copied := *archived
		all = append(all, &copied)
	}
	return all, nil
}

func (s *ArchiveStore) Create(_ context.Context, archived *storage.ArchivedElection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[archived.ElectionID]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	copied := *archived
	s.items[archived.ElectionID] = &copied
	return nil
}

type AuditStore struct {
	mu    sync.Mutex
	items map[string]*storage.VoteAuditEntry
}

func NewAuditStore() *AuditStore {
	return &AuditStore{items: make(map[string]*storage.VoteAuditEntry)}
}

func (s *AuditStore) Create(_ context.Context, entry *storage.VoteAuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[entry.Hash]; ok {
		return storage.ErrItemWithIDAlreadyExists
	}
	copied := *entry
	s.items[entry.Hash] = &copied
	return nil
}

func (s *AuditStore) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, hash)
	return nil
}

func (s *AuditStore) GetByElection(_ context.Context, electionID string) ([]*storage.VoteAuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []*storage.VoteAuditEntry
	for _, entry := range s.items {
		if entry.ElectionID == electionID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}

func (s *AuditStore) DeleteByElection(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, entry := range s.items {
		if entry.ElectionID == electionID {
			delete(s.items, hash)
		}
	}
	return nil
}

func copyVoterList(list *storage.VoterList) *storage.VoterList {
	copied := *list
	copied.Voters = append([]storage.VoterListEntry(nil), list.Voters...)
	return &copied
}

func copyCandidateList(list *storage.CandidateList) *storage.CandidateList {
	copied := *list
	copied.Candidates = append([]storage.CandidateListEntry(nil), list.Candidates...)
	return &copied
}

func copyVoterSet(set *storage.ElectionVoterSet) *storage.ElectionVoterSet {
	copied := *set
	copied.Voters = append([]storage.ElectionVoter(nil), set.Voters...)
	return &copied
}

func copyCandidateSet(set *storage.ElectionCandidateSet) *storage.ElectionCandidateSet {
	copied := *set
	copied.Candidates = append([]storage.ElectionCandidate(nil), set.Candidates...)
	return &copied
}
