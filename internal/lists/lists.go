// Package lists selects and deletes marketing contact lists.
package lists

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client is the part of the SendGrid API the Manager needs.
type Client interface {
	ListLists(ctx context.Context, pageSize int) ([]types.List, error)
	DeleteList(ctx context.Context, id string, deleteContacts bool) error
}

// Match reports whether l is selected by pattern: an exact id, or a glob
// over the list name.
func Match(l types.List, pattern string) (bool, error) {
	if l.ID == pattern {
		return true, nil
	}
	ok, err := path.Match(pattern, l.Name)
	if err != nil {
		return false, fmt.Errorf("invalid list pattern %q: %w", pattern, err)
	}
	return ok, nil
}

// Select returns the lists matching any pattern, sorted by name. No patterns
// selects everything.
func Select(all []types.List, patterns []string) ([]types.List, error) {
	var selected []types.List
	for _, l := range all {
		keep := len(patterns) == 0
		for _, p := range patterns {
			ok, err := Match(l, p)
			if err != nil {
				return nil, err
			}
			if ok {
				keep = true
				break
			}
		}
		if keep {
			selected = append(selected, l)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return strings.ToLower(selected[i].Name) < strings.ToLower(selected[j].Name)
	})
	return selected, nil
}

// Manager finds and deletes lists.
type Manager struct {
	client   Client
	logger   *zap.Logger
	pageSize int
}

// NewManager creates a Manager. pageSize 0 uses the client default.
func NewManager(client Client, logger *zap.Logger, pageSize int) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{client: client, logger: logger, pageSize: pageSize}
}

// Find fetches all lists and selects the ones matching patterns.
func (m *Manager) Find(ctx context.Context, patterns []string) ([]types.List, error) {
	all, err := m.client.ListLists(ctx, m.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}
	selected, err := Select(all, patterns)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Lists selected", zap.Int("total", len(all)), zap.Int("selected", len(selected)))
	return selected, nil
}

// DeleteOutcome is the result of deleting one list.
type DeleteOutcome struct {
	List types.List
	Err  error
}

// Delete removes every list concurrently. A failed deletion is recorded in its
// outcome and does not stop the others.
func (m *Manager) Delete(ctx context.Context, lists []types.List, deleteContacts bool) []DeleteOutcome {
	outcomes := make([]DeleteOutcome, len(lists))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, l := range lists {
		eg.Go(func() error {
			err := m.client.DeleteList(egCtx, l.ID, deleteContacts)
			outcomes[i] = DeleteOutcome{List: l, Err: err}
			if err != nil {
				m.logger.Warn("List deletion failed", zap.String("list", l.ID), zap.Error(err))
			} else {
				m.logger.Info("List deleted", zap.String("list", l.ID), zap.Bool("contacts", deleteContacts))
			}
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}
