// Package memory is an in-process storage backend. Every unit of work runs under one store-wide
// mutex against a private copy of the state, which replaces the live state only on success.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
)

type state struct {
	groups   map[string]domain.Group
	members  map[string][]domain.Member
	events   map[string][]domain.Event // per group, append order
	seq      map[string]int64
	splits   map[string]domain.Split
	accounts map[string]domain.Account
	entries  map[string][]domain.AccountEntry // per account, append order
}

func newState() *state {
	return &state{
		groups:   map[string]domain.Group{},
		members:  map[string][]domain.Member{},
		events:   map[string][]domain.Event{},
		seq:      map[string]int64{},
		splits:   map[string]domain.Split{},
		accounts: map[string]domain.Account{},
		entries:  map[string][]domain.AccountEntry{},
	}
}

// clone copies everything a unit of work may mutate. Events and entries are immutable once
// appended, so their slices are copied shallowly.
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.groups {
		c.groups[k] = v
	}
	for k, v := range st.members {
		c.members[k] = append([]domain.Member(nil), v...)
	}
	for k, v := range st.events {
		c.events[k] = append([]domain.Event(nil), v...)
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	for k, v := range st.splits {
		c.splits[k] = cloneSplit(v)
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.entries {
		c.entries[k] = append([]domain.AccountEntry(nil), v...)
	}
	return c
}

func cloneSplit(s domain.Split) domain.Split {
	s.Participants = append([]domain.SplitParticipant(nil), s.Participants...)
	return s
}

// Store implements every repository port in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// NewRepositoryProvider wires a store into the repository ports.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		GroupRepo:   store,
		EventRepo:   store,
		SplitRepo:   store,
		AccountRepo: store,
		TxManager:   store,
	}
}

var (
	_ portsrepo.GroupReader        = (*Store)(nil)
	_ portsrepo.EventReader        = (*Store)(nil)
	_ portsrepo.SplitReader        = (*Store)(nil)
	_ portsrepo.AccountReader      = (*Store)(nil)
	_ portsrepo.TransactionManager = (*Store)(nil)
	_ portsrepo.TxRepositories     = (*memTx)(nil)
)

// AddGroup registers a group together with its initial roster.
func (s *Store) AddGroup(group domain.Group, members ...domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.groups[group.GroupID] = group
	for _, m := range members {
		m.GroupID = group.GroupID
		s.st.members[group.GroupID] = append(s.st.members[group.GroupID], m)
	}
}

// AddMember adds a member to an existing group's roster.
func (s *Store) AddMember(member domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.members[member.GroupID] = append(s.st.members[member.GroupID], member)
}

// RemoveMember drops a member from the roster. Their ledger history is kept.
func (s *Store) RemoveMember(groupID, memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.st.members[groupID][:0]
	for _, m := range s.st.members[groupID] {
		if m.MemberID != memberID {
			kept = append(kept, m)
		}
	}
	s.st.members[groupID] = kept
}

// PutAccount creates or replaces a personal account.
func (s *Store) PutAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.accounts[account.AccountID] = account
}

// WithinTx implements portsrepo.TransactionManager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// FindGroupByID implements portsrepo.GroupReader.
func (s *Store) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findGroup(s.st, groupID)
}

// ListMembers implements portsrepo.GroupReader.
func (s *Store) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listMembers(s.st, groupID), nil
}

// ListEventsSince implements portsrepo.EventReader.
func (s *Store) ListEventsSince(ctx context.Context, groupID string, after *domain.EventCursor) ([]domain.Event, error) {
	return s.ListEventsPage(ctx, groupID, after, 0)
}

// ListEventsPage implements portsrepo.EventReader. A limit of zero means no limit.
func (s *Store) ListEventsPage(ctx context.Context, groupID string, after *domain.EventCursor, limit int) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := replayOrder(s.st, groupID)
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if after != nil && !after.Before(e.Cursor()) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// FindLatestMarker implements portsrepo.EventReader.
func (s *Store) FindLatestMarker(ctx context.Context, groupID string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return latestMarker(s.st, groupID), nil
}

// LatestSeq implements portsrepo.EventReader.
func (s *Store) LatestSeq(ctx context.Context, groupID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.seq[groupID], nil
}

// FindSplitByID implements portsrepo.SplitReader.
func (s *Store) FindSplitByID(ctx context.Context, splitID string) (*domain.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findSplit(s.st, splitID)
}

// ListSplitsByGroup implements portsrepo.SplitReader.
func (s *Store) ListSplitsByGroup(ctx context.Context, groupID string, limit int, offset int) ([]domain.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var splits []domain.Split
	for _, sp := range s.st.splits {
		if sp.GroupID == groupID {
			splits = append(splits, cloneSplit(sp))
		}
	}
	sort.Slice(splits, func(i, j int) bool {
		if splits[i].CreatedAt.Equal(splits[j].CreatedAt) {
			return splits[i].SplitID > splits[j].SplitID
		}
		return splits[i].CreatedAt.After(splits[j].CreatedAt)
	})
	if offset >= len(splits) {
		return []domain.Split{}, nil
	}
	splits = splits[offset:]
	if limit > 0 && len(splits) > limit {
		splits = splits[:limit]
	}
	return splits, nil
}

// FindAccountByID implements portsrepo.AccountReader.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.st.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account " + accountID)
	}
	return &acc, nil
}

// ListAccountEntries implements portsrepo.AccountReader.
func (s *Store) ListAccountEntries(ctx context.Context, accountID string, after *portsrepo.EntryCursor, limit int) ([]domain.AccountEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append([]domain.AccountEntry(nil), s.st.entries[accountID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entryBefore(entries[i].At, entries[i].EntryID, entries[j].At, entries[j].EntryID)
	})
	out := make([]domain.AccountEntry, 0, len(entries))
	for _, e := range entries {
		if after != nil && !entryBefore(after.At, after.EntryID, e.At, e.EntryID) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func entryBefore(at time.Time, id string, otherAt time.Time, otherID string) bool {
	if at.Equal(otherAt) {
		return id < otherID
	}
	return at.Before(otherAt)
}

// memTx operates on the private copy of a unit of work. The store mutex is already held.
type memTx struct {
	st *state
}

func (t *memTx) LockGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	return findGroup(t.st, groupID)
}

func (t *memTx) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	return listMembers(t.st, groupID), nil
}

func (t *memTx) AppendEvent(ctx context.Context, event *domain.Event) error {
	if event.IdempotencyKey != "" {
		for _, e := range t.st.events[event.GroupID] {
			if e.IdempotencyKey == event.IdempotencyKey {
				return fmt.Errorf("%w: idempotency key %q already used in group %s", apperrors.ErrDuplicate, event.IdempotencyKey, event.GroupID)
			}
		}
	}
	t.st.seq[event.GroupID]++
	event.Seq = t.st.seq[event.GroupID]
	t.st.events[event.GroupID] = append(t.st.events[event.GroupID], *event)
	return nil
}

func (t *memTx) FindEventByIdempotencyKey(ctx context.Context, groupID, key string) (*domain.Event, error) {
	for _, e := range t.st.events[groupID] {
		if e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, nil
}

func (t *memTx) FindLatestMarker(ctx context.Context, groupID string) (*domain.Event, error) {
	return latestMarker(t.st, groupID), nil
}

func (t *memTx) FindLatestEvent(ctx context.Context, groupID string) (*domain.Event, error) {
	events := replayOrder(t.st, groupID)
	if len(events) == 0 {
		return nil, nil
	}
	return &events[len(events)-1], nil
}

func (t *memTx) SaveSplit(ctx context.Context, split domain.Split) error {
	if _, exists := t.st.splits[split.SplitID]; exists {
		return fmt.Errorf("%w: split %s", apperrors.ErrDuplicate, split.SplitID)
	}
	t.st.splits[split.SplitID] = cloneSplit(split)
	return nil
}

func (t *memTx) FindSplitForUpdate(ctx context.Context, splitID string) (*domain.Split, error) {
	return findSplit(t.st, splitID)
}

func (t *memTx) MarkParticipantPaid(ctx context.Context, splitID, memberID string, at time.Time) error {
	split, ok := t.st.splits[splitID]
	if !ok {
		return apperrors.NewNotFoundError("split " + splitID)
	}
	p, ok := split.Participant(memberID)
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("participant %s in split %s", memberID, splitID))
	}
	if !p.IsPaid {
		paidAt := at
		p.IsPaid = true
		p.PaidAt = &paidAt
	}
	t.st.splits[splitID] = split
	return nil
}

func (t *memTx) MarkSplitSettled(ctx context.Context, splitID, settledBy string, at time.Time) error {
	split, ok := t.st.splits[splitID]
	if !ok {
		return apperrors.NewNotFoundError("split " + splitID)
	}
	if split.IsSettled {
		return apperrors.NewConflictError("split %s is already settled", splitID)
	}
	settledAt := at
	split.IsSettled = true
	split.SettledAt = &settledAt
	split.SettledBy = settledBy
	t.st.splits[splitID] = split
	return nil
}

func (t *memTx) FindAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if acc, ok := t.st.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (t *memTx) UpdateAccountBalances(ctx context.Context, account domain.Account) error {
	stored, ok := t.st.accounts[account.AccountID]
	if !ok {
		return apperrors.NewNotFoundError("account " + account.AccountID)
	}
	stored.Balance = account.Balance
	stored.CurrentCreditUsed = account.CurrentCreditUsed
	stored.LastUpdatedAt = account.LastUpdatedAt
	stored.LastUpdatedBy = account.LastUpdatedBy
	t.st.accounts[account.AccountID] = stored
	return nil
}

func (t *memTx) AppendAccountEntries(ctx context.Context, entries []domain.AccountEntry) error {
	for _, e := range entries {
		t.st.entries[e.AccountID] = append(t.st.entries[e.AccountID], e)
	}
	return nil
}

func (t *memTx) FindAccountEntryByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.AccountEntry, error) {
	for _, e := range t.st.entries[accountID] {
		if e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, nil
}

func findGroup(st *state, groupID string) (*domain.Group, error) {
	g, ok := st.groups[groupID]
	if !ok {
		return nil, apperrors.NewNotFoundError("group " + groupID)
	}
	return &g, nil
}

func listMembers(st *state, groupID string) []domain.Member {
	members := append([]domain.Member(nil), st.members[groupID]...)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].MemberID < members[j].MemberID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members
}

func findSplit(st *state, splitID string) (*domain.Split, error) {
	sp, ok := st.splits[splitID]
	if !ok {
		return nil, apperrors.NewNotFoundError("split " + splitID)
	}
	c := cloneSplit(sp)
	return &c, nil
}

func replayOrder(st *state, groupID string) []domain.Event {
	events := append([]domain.Event(nil), st.events[groupID]...)
	domain.SortEvents(events)
	return events
}

func latestMarker(st *state, groupID string) *domain.Event {
	events := replayOrder(st, groupID)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == domain.EventSettlementMarker {
			return &events[i]
		}
	}
	return nil
}
