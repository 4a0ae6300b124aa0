package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/careguide/careguide-cli/internal/adapters/backend"
	transcript "github.com/careguide/careguide-cli/internal/adapters/render/transcript"
	tomlrepo "github.com/careguide/careguide-cli/internal/adapters/repo/toml"
	filestore "github.com/careguide/careguide-cli/internal/adapters/store/file"
	"github.com/careguide/careguide-cli/internal/application"
	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/careguide/careguide-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const ownerIDKey = "careguide/owner"

type app struct {
	conversations *application.ConversationService
	sessions      *application.SessionService
	renderer      func([]domain.Message, transcript.RenderOptions) (string, error)
	ownerID       string
	profile       ports.UserProfile
	now           func() time.Time
}

func wireApp() (*app, error) {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rooms, err := tomlrepo.NewRoomRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire room repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	store := filestore.NewStore(filepath.Join(homeDir, ".careguide", "state"))
	persistence := application.NewPersistence(store, logger)

	client := backend.NewClient(
		envOrDefault("CAREGUIDE_API_BASE_URL", "https://api.careguide.health"),
		http.DefaultClient,
		logger,
	)

	sessions := application.NewSessionService(client, rooms, persistence, ports.SystemClock{}, logger)

	ownerID, err := resolveOwnerID(store)
	if err != nil {
		return nil, err
	}

	return &app{
		conversations: application.NewConversationService(client, rooms, sessions, persistence, ports.SystemClock{}, logger),
		sessions:      sessions,
		renderer:      transcript.Render,
		ownerID:       ownerID,
		profile: ports.UserProfile{
			Nickname:     os.Getenv("CAREGUIDE_NICKNAME"),
			DiseaseStage: os.Getenv("CAREGUIDE_DISEASE_STAGE"),
			UserRole:     os.Getenv("CAREGUIDE_USER_ROLE"),
		},
		now: time.Now,
	}, nil
}

// resolveOwnerID returns a stable anonymous identity for this machine,
// minting and persisting one on first use. CAREGUIDE_OWNER_ID overrides it.
func resolveOwnerID(store ports.LocalStore) (string, error) {
	if id := os.Getenv("CAREGUIDE_OWNER_ID"); id != "" {
		return id, nil
	}

	ctx := context.Background()

	id, err := store.Get(ctx, ownerIDKey)
	if err == nil && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id), nil
	}
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return "", fmt.Errorf("read owner id: %w", err)
	}

	id = uuid.NewString()
	if err := store.Set(ctx, ownerIDKey, id); err != nil {
		return "", fmt.Errorf("persist owner id: %w", err)
	}

	return id, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
