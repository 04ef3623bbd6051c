package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	fitnessentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/fitness/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/observability"
	profileentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/storage/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/utilities"
)

var ErrPersistence = errors.New("persistence failed")

// DocumentStore is the subset of the document store the gateway needs.
type DocumentStore interface {
	ListDocuments(ctx context.Context, databaseID, collectionID string) ([]entity.Document, error)
	CreateDocument(ctx context.Context, databaseID, collectionID, id string, data any) (*entity.Document, error)
}

type Config struct {
	DatabaseID          string
	ProfileCollectionID string
	FitnessCollectionID string
}

func ConfigFromEnv() Config {
	return Config{
		DatabaseID:          utilities.EnvString("DATABASE_ID", "fitness"),
		ProfileCollectionID: utilities.EnvString("COLLECTION_ID", "profiles"),
		FitnessCollectionID: utilities.EnvString("FITNESS_COLLECTION_ID", "daily"),
	}
}

// Gateway writes identities and daily records to the document store.
type Gateway struct {
	store  DocumentStore
	cfg    Config
	logger *zap.SugaredLogger
	newID  func() string

	// profileMu serializes the list-then-create of SaveIdentity.
	profileMu sync.Mutex
}

func NewGateway(store DocumentStore, cfg Config, logger *zap.SugaredLogger) *Gateway {
	return &Gateway{store: store, cfg: cfg, logger: logger, newID: utilities.UniqueID}
}

// SaveIdentity creates a profile document unless one with the same photo
// URL is already stored. The unique index on the table covers writers in
// other processes.
func (g *Gateway) SaveIdentity(ctx context.Context, identity *profileentity.UserIdentity) error {
	g.profileMu.Lock()
	defer g.profileMu.Unlock()

	docs, err := g.store.ListDocuments(ctx, g.cfg.DatabaseID, g.cfg.ProfileCollectionID)
	if err != nil {
		return fmt.Errorf("%w: list profiles: %w", ErrPersistence, err)
	}
	for i := range docs {
		var p entity.Profile
		if err := docs[i].Decode(&p); err != nil {
			g.logger.Warnw("skip undecodable profile", "id", docs[i].ID, "err", err)
			continue
		}
		if p.ProfileURL == identity.PhotoURL {
			g.logger.Infow("user already exists", "id", docs[i].ID)
			observability.RecordWrite(g.cfg.ProfileCollectionID, "skipped")
			return nil
		}
	}

	body := entity.Profile{Username: identity.DisplayName, ProfileURL: identity.PhotoURL}
	if identity.UserID != nil {
		body.UserID = identity.UserID.String()
	}
	_, err = g.store.CreateDocument(ctx, g.cfg.DatabaseID, g.cfg.ProfileCollectionID, g.newID(), body)
	if errors.Is(err, entity.ErrDuplicate) {
		g.logger.Infow("user already exists", "profile_url", identity.PhotoURL)
		observability.RecordWrite(g.cfg.ProfileCollectionID, "skipped")
		return nil
	}
	if err != nil {
		observability.RecordWrite(g.cfg.ProfileCollectionID, "error")
		return fmt.Errorf("%w: create profile: %w", ErrPersistence, err)
	}
	observability.RecordWrite(g.cfg.ProfileCollectionID, "created")
	return nil
}

// AppendDailyRecord always inserts a new document for rec.
func (g *Gateway) AppendDailyRecord(ctx context.Context, rec fitnessentity.DailyRecord) error {
	if _, err := g.store.CreateDocument(ctx, g.cfg.DatabaseID, g.cfg.FitnessCollectionID, g.newID(), dailyEntry(rec)); err != nil {
		observability.RecordWrite(g.cfg.FitnessCollectionID, "error")
		return fmt.Errorf("%w: append %s: %w", ErrPersistence, rec.Date, err)
	}
	observability.RecordWrite(g.cfg.FitnessCollectionID, "created")
	return nil
}

// Persist saves the identity and then every record. Failures are logged and
// never stop the remaining writes.
func (g *Gateway) Persist(ctx context.Context, identity *profileentity.UserIdentity, records []fitnessentity.DailyRecord) {
	if err := g.SaveIdentity(ctx, identity); err != nil {
		g.logger.Errorw("save identity", "err", err)
	}
	for _, rec := range records {
		if err := g.AppendDailyRecord(ctx, rec); err != nil {
			g.logger.Errorw("append daily record", "date", rec.Date.String(), "err", err)
		}
	}
}

func dailyEntry(rec fitnessentity.DailyRecord) entity.DailyEntry {
	return entity.DailyEntry{
		Date:           rec.Date.Time,
		StepCount:      strconv.FormatInt(rec.StepCount, 10),
		Height:         rec.HeightInCms,
		Weight:         rec.Weight,
		MenstrualCycle: strconv.FormatInt(rec.MenstrualCycleStart, 10),
		HeartRate:      rec.HeartRate,
		GlucoseLevel:   rec.GlucoseLevel,
		BodyFat:        rec.BodyFatInPercent,
		BloodPressure:  formatFloat(rec.BloodPressure[0]) + "," + formatFloat(rec.BloodPressure[1]),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
