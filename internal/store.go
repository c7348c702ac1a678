package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

type IStore interface {
	Create(context.Context, model.Order) error
	Get(context.Context, string) (model.Order, error)
	Update(context.Context, string, func(*model.Order) error) (model.Order, error)
	Delete(context.Context, string) error
	List(context.Context, string) ([]model.OrderSummary, error)
	All(context.Context) ([]model.Order, error)
	Entries(context.Context) ([]model.StoreEntry, error)
}

// FileStore keeps one JSON file per order under a single directory.
// Writes go through a temp file and an atomic rename so a crash mid-write
// never leaves a half-written record behind. A per-ID mutex serializes
// read-modify-write cycles against the same order.
type FileStore struct {
	dir    string
	logger *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileStore(dir string, logger *zap.SugaredLogger) (*FileStore, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create orders directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FileStore) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = new(sync.Mutex)
		s.locks[id] = l
	}
	return l
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return "", ErrOrderNotFound
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *FileStore) Create(_ context.Context, order model.Order) error {
	p, err := s.path(order.ID)
	if err != nil {
		return err
	}

	l := s.lock(order.ID)
	l.Lock()
	defer l.Unlock()

	if _, err = os.Stat(p); err == nil {
		return ErrDuplicateOrderID
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat order %s: %w", order.ID, err)
	}

	return s.write(p, order)
}

func (s *FileStore) Get(_ context.Context, id string) (model.Order, error) {
	p, err := s.path(id)
	if err != nil {
		return model.Order{}, err
	}
	return s.read(p, id)
}

func (s *FileStore) Update(_ context.Context, id string, mutate func(*model.Order) error) (model.Order, error) {
	p, err := s.path(id)
	if err != nil {
		return model.Order{}, err
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	order, err := s.read(p, id)
	if err != nil {
		return model.Order{}, err
	}

	err = mutate(&order)
	if err != nil {
		return model.Order{}, err
	}

	err = s.write(p, order)
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	err = os.Remove(p)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

// List returns summaries for every readable record, newest first,
// optionally narrowed to one status. Unreadable files are logged and
// skipped so one corrupt record cannot hide the rest.
func (s *FileStore) List(ctx context.Context, status string) ([]model.OrderSummary, error) {
	orders, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.OrderSummary, 0, len(orders))
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		summaries = append(summaries, model.OrderSummary{
			ID:        o.ID,
			Timestamp: o.Timestamp,
			Status:    o.Status,
			ItemCount: len(o.Items),
		})
	}
	return summaries, nil
}

func (s *FileStore) All(_ context.Context) ([]model.Order, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read orders directory: %w", err)
	}

	orders := make([]model.Order, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(f.Name(), ".json")
		order, err := s.read(filepath.Join(s.dir, f.Name()), id)
		if err != nil {
			s.logger.Warnf("skipping unreadable order record %s: %s", f.Name(), err)
			continue
		}
		orders = append(orders, order)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
	return orders, nil
}

func (s *FileStore) Entries(_ context.Context) ([]model.StoreEntry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read orders directory: %w", err)
	}

	entries := make([]model.StoreEntry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			s.logger.Warnf("stat order record %s: %s", f.Name(), err)
			continue
		}
		entries = append(entries, model.StoreEntry{
			ID:      strings.TrimSuffix(f.Name(), ".json"),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (s *FileStore) read(path, id string) (model.Order, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("read order %s: %w", id, err)
	}

	var order model.Order
	err = json.Unmarshal(data, &order)
	if err != nil {
		return model.Order{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	return order, nil
}

func (s *FileStore) write(path string, order model.Order) error {
	data, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+order.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record for order %s: %w", order.ID, err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write order %s: %w", order.ID, err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace order %s: %w", order.ID, err)
	}
	return nil
}
