package accounting

import (
	"context"
	"sync"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

type sourceKey struct {
	kind SourceType
	id   id.ID
}

type memRepo struct {
	mu       sync.Mutex
	accounts map[string]Account
	sources  map[sourceKey]*Source
	entries  map[id.ID]Entry
	lines    map[id.ID][]EntryLine

	ensureCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: make(map[string]Account),
		sources:  make(map[sourceKey]*Source),
		entries:  make(map[id.ID]Entry),
		lines:    make(map[id.ID][]EntryLine),
	}
}

func (r *memRepo) addSource(kind SourceType, src Source) id.ID {
	src.ID = id.New()
	r.sources[sourceKey{kind, src.ID}] = &src
	return src.ID
}

func (r *memRepo) EnsureChart(_ context.Context, accounts []Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureCalls++
	for _, a := range accounts {
		if _, ok := r.accounts[a.Code]; !ok {
			r.accounts[a.Code] = a
		}
	}
	return nil
}

func (r *memRepo) LockSource(_ context.Context, sourceType SourceType, sourceID id.ID) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[sourceKey{sourceType, sourceID}]
	if !ok {
		return nil, apperror.NewNotFound(string(sourceType), sourceID)
	}
	cp := *src
	return &cp, nil
}

func (r *memRepo) SetSourceEntry(_ context.Context, sourceType SourceType, sourceID, entryID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[sourceKey{sourceType, sourceID}].JournalEntryID = &entryID
	return nil
}

func (r *memRepo) CreateEntry(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	e.Lines = nil
	r.entries[entry.ID] = e
	return nil
}

func (r *memRepo) SaveLines(_ context.Context, entryID id.ID, lines []EntryLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[entryID] = append([]EntryLine(nil), lines...)
	return nil
}

func (r *memRepo) GetEntry(_ context.Context, entryID id.ID) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryID]
	if !ok {
		return nil, apperror.NewNotFound("journal entry", entryID)
	}
	return &e, nil
}

func (r *memRepo) GetLines(_ context.Context, entryID id.ID) ([]EntryLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EntryLine(nil), r.lines[entryID]...), nil
}

func (r *memRepo) TrialBalance(_ context.Context) ([]TrialBalanceRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCode := make(map[string]*TrialBalanceRow)
	for _, lines := range r.lines {
		for _, l := range lines {
			row, ok := byCode[l.AccountCode]
			if !ok {
				row = &TrialBalanceRow{AccountCode: l.AccountCode, Debit: types.Zero(), Credit: types.Zero()}
				byCode[l.AccountCode] = row
			}
			row.Debit = row.Debit.Add(l.Debit)
			row.Credit = row.Credit.Add(l.Credit)
		}
	}
	out := make([]TrialBalanceRow, 0, len(byCode))
	for _, row := range byCode {
		out = append(out, *row)
	}
	return out, nil
}

var _ Repository = (*memRepo)(nil)
