package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finbot/internal/core"
	ports "finbot/internal/sheets"
)

var _ ports.Store = (*Store)(nil)

// Store keeps records, budgets and categories in process memory.
type Store struct {
	mu      sync.Mutex
	cats    []string
	budgets []core.Budget
	items   []core.Transaction
}

func New(cats []string) *Store {
	return &Store{cats: dedupe(cats)}
}

// NewFromFiles seeds categories from seed_categories.txt and budgets from
// seed_budgets.txt ("Category,Amount" per line) under base. Missing files
// fall back to the default category list and no budgets.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = core.DefaultCategories
	}
	s := New(cats)
	for _, line := range readLines(filepath.Join(base, "seed_budgets.txt")) {
		name, amount, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		m, ok := core.ParseStoredAmount(amount)
		if !ok || m.Validate() != nil {
			continue
		}
		s.budgets = append(s.budgets, core.Budget{Category: strings.TrimSpace(name), Max: m})
	}
	return s
}

// AppendRecord stores the transaction and returns a synthetic row reference.
func (s *Store) AppendRecord(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Only the canonical columns survive a real backend.
	t.ChatID = 0
	s.items = append(s.items, t)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) ListRecords(_ context.Context, f core.RecordFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterRecords(s.items, f), nil
}

func (s *Store) Budgets(_ context.Context) (map[string]core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.Money, len(s.budgets))
	for _, b := range s.budgets {
		out[core.CategoryKey(b.Category)] = b.Max
	}
	return out, nil
}

func (s *Store) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := core.CategoryKey(b.Category)
	for i := range s.budgets {
		if core.CategoryKey(s.budgets[i].Category) == key {
			s.budgets[i].Max = b.Max
			return nil
		}
	}
	s.budgets = append(s.budgets, core.Budget{Category: core.Title(b.Category), Max: b.Max})
	return nil
}

func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) AddCategory(_ context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if core.ContainsCategory(s.cats, name) {
		return false, nil
	}
	s.cats = append(s.cats, core.Title(name))
	return true, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// dedupe drops blanks and case-insensitive duplicates, keeping input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		k := core.CategoryKey(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
