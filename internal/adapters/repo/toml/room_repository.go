package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/careguide/careguide-cli/internal/ports"
)

const (
	configName      = "config"
	configType      = "toml"
	roomsPathKey    = "rooms.path"
	roomsFileMode   = 0o600
	roomsDirMode    = 0o700
	configDirName   = ".careguide"
	roomsFileName   = "rooms.toml"
	tempFilePattern = ".rooms-*.toml.tmp"
)

// RoomRepository stores the room ledger in a single TOML file whose path is
// resolved through viper.
type RoomRepository struct {
	roomsPath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RoomRepository = (*RoomRepository)(nil)

func NewRoomRepository(cfg *viper.Viper) (*RoomRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDirName, roomsFileName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))
	cfg.SetDefault(roomsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	roomsPath := cfg.GetString(roomsPathKey)
	if roomsPath == "" {
		return nil, errors.New("rooms path is empty")
	}
	roomsPath, err = normalizeRoomsPath(roomsPath)
	if err != nil {
		return nil, err
	}

	return &RoomRepository{roomsPath: roomsPath, mu: lockForPath(roomsPath)}, nil
}

func (r *RoomRepository) Save(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(room)
	updated := false
	for i := range file.Rooms {
		if file.Rooms[i].ID == encoded.ID {
			file.Rooms[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Rooms = append(file.Rooms, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Room{}, err
	}
	file.applyDefaults()

	for _, entry := range file.Rooms {
		if entry.ID == id {
			return fromSchema(entry), nil
		}
	}

	return domain.Room{}, domain.ErrRoomNotFound
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	rooms := make([]domain.Room, 0, len(file.Rooms))
	for _, entry := range file.Rooms {
		rooms = append(rooms, fromSchema(entry))
	}

	return rooms, nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	kept := file.Rooms[:0]
	found := false
	for _, entry := range file.Rooms {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return domain.ErrRoomNotFound
	}
	file.Rooms = kept

	return r.writeSchema(file)
}

func (r *RoomRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.roomsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read rooms file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode rooms file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *RoomRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.roomsPath), roomsDirMode); err != nil {
		return fmt.Errorf("create rooms directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode rooms file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.roomsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp rooms file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp rooms file: %w", err)
	}

	if err := tempFile.Chmod(roomsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp rooms file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp rooms file: %w", err)
	}

	if err := os.Rename(tempName, r.roomsPath); err != nil {
		return fmt.Errorf("replace rooms file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.roomsPath, roomsFileMode); err != nil {
		return fmt.Errorf("chmod rooms file: %w", err)
	}

	return nil
}

func normalizeRoomsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve rooms path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
