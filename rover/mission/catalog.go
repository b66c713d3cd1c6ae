package mission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mars-rover/rover/engine"
)

// Supported mission file extensions, in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Catalog handles mission loading and caching
type Catalog struct {
	dir      string
	logger   *zap.Logger
	missions map[string]*Mission
	mu       sync.RWMutex
}

// NewCatalog creates a catalog over the missions in dir
func NewCatalog(dir string, logger *zap.Logger) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("missions directory does not exist: %s", dir)
		}
		return nil, fmt.Errorf("failed to stat missions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("missions path is not a directory: %s", dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Catalog{
		dir:      dir,
		logger:   logger,
		missions: make(map[string]*Mission),
	}, nil
}

// Dir returns the directory the catalog reads from
func (c *Catalog) Dir() string {
	return c.dir
}

// Load loads a mission by ID (its file name without extension)
func (c *Catalog) Load(id string) (*Mission, error) {
	id = missionID(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, ErrMissionNotFound
	}

	c.mu.RLock()
	// Check cache first
	if m, exists := c.missions[id]; exists {
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if m, exists := c.missions[id]; exists {
		return m, nil
	}

	m, err := c.readMission(id)
	if err != nil {
		return nil, err
	}

	c.missions[id] = m
	return m, nil
}

// readMission reads and validates the first file matching id
func (c *Catalog) readMission(id string) (*Mission, error) {
	for _, ext := range extensions {
		path := filepath.Join(c.dir, id+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read mission file: %w", err)
		}

		m, err := Decode(data, ext)
		if err != nil {
			return nil, err
		}
		if err := Validate(m); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, ErrMissionNotFound
}

// Decode parses mission data in the format implied by ext
func Decode(data []byte, ext string) (*Mission, error) {
	var m Mission
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: failed to parse JSON: %v", ErrInvalidMission, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidMission, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidMission, ext)
	}
	return &m, nil
}

// List returns information about all valid missions, sorted by ID
func (c *Catalog) List() ([]*Info, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read missions directory: %w", err)
	}

	seen := make(map[string]bool)
	infos := []*Info{}

	for _, entry := range entries {
		if entry.IsDir() || !supported(entry.Name()) {
			continue
		}

		id := missionID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		m, err := c.Load(id)
		if err != nil {
			// Skip invalid missions
			c.logger.Debug("skipping mission", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		grid, _ := engine.ParseGrid(m.Grid)
		infos = append(infos, &Info{
			Filename:    entry.Name(),
			MissionID:   id,
			Name:        m.Name,
			Description: m.Description,
			Grid:        grid,
			Moves:       strings.Count(m.Instructions, string(engine.Move)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].MissionID < infos[j].MissionID
	})
	return infos, nil
}

// Save validates a mission and writes it to <id>.json
func (c *Catalog) Save(id string, m *Mission) error {
	if err := Validate(m); err != nil {
		return err
	}

	id = missionID(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: invalid mission id %q", ErrInvalidMission, id)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mission: %w", err)
	}

	path := filepath.Join(c.dir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mission file: %w", err)
	}

	c.mu.Lock()
	c.missions[id] = m
	c.mu.Unlock()

	return nil
}

// Evict drops a mission from the cache so the next Load rereads it
func (c *Catalog) Evict(id string) {
	c.mu.Lock()
	delete(c.missions, missionID(id))
	c.mu.Unlock()
}

// Refresh clears the whole cache
func (c *Catalog) Refresh() {
	c.mu.Lock()
	c.missions = make(map[string]*Mission)
	c.mu.Unlock()
}

// Watch evicts cached missions whenever their files change on disk and calls
// notify, when not nil, with the changed mission ID. It returns once the
// watcher is running; watching stops when ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, notify func(id string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Base(event.Name)
				if !supported(name) {
					continue
				}
				c.Evict(name)
				c.logger.Debug("mission file changed",
					zap.String("file", name), zap.String("op", event.Op.String()))
				if notify != nil {
					notify(missionID(name))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.watchError(err)
			}
		}
	}()

	return nil
}

// watchError logs a watcher failure. After an overflow some events were lost,
// so nothing in the cache can be trusted.
func (c *Catalog) watchError(err error) {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		c.logger.Warn("mission watcher overflowed, clearing cache", zap.Error(err))
		c.Refresh()
		return
	}
	c.logger.Warn("mission watcher error", zap.Error(err))
}

// missionID strips a supported extension from name
func missionID(name string) string {
	ext := filepath.Ext(name)
	if supported(name) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
