package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
	"companion_hub/internal/domain/repository"
	"companion_hub/internal/platform/cache"
)

var (
	ErrCharacterNotFound = common.NewError(common.ErrNotFound, "Character not found")
	ErrWeaponNotFound    = common.NewError(common.ErrNotFound, "Weapon not found")
)

// ReferenceKinds lists every reference table served by the API.
var ReferenceKinds = []model.ReferenceKind{model.KindCharacter, model.KindWeapon}

// ReferenceService is a read-through view over the reference tables with an
// optional cache in front.
type ReferenceService struct {
	repo  repository.ReferenceRepository
	cache cache.Store
	ttl   time.Duration
}

func NewReferenceService(repo repository.ReferenceRepository, store cache.Store, ttl time.Duration) *ReferenceService {
	if store == nil {
		store = cache.Noop()
	}
	return &ReferenceService{repo: repo, cache: store, ttl: ttl}
}

func listKey(kind model.ReferenceKind) string { return string(kind) }

func itemKey(kind model.ReferenceKind, id int64) string {
	return string(kind) + ":" + strconv.FormatInt(id, 10)
}

func notFoundFor(kind model.ReferenceKind) error {
	if kind == model.KindWeapon {
		return ErrWeaponNotFound
	}
	return ErrCharacterNotFound
}

func (s *ReferenceService) List(ctx context.Context, kind model.ReferenceKind) ([]model.Record, error) {
	var records []model.Record
	if s.fromCache(ctx, listKey(kind), &records) {
		return records, nil
	}
	return s.load(ctx, kind)
}

func (s *ReferenceService) Get(ctx context.Context, kind model.ReferenceKind, id int64) (model.Record, error) {
	var record model.Record
	if s.fromCache(ctx, itemKey(kind, id), &record) {
		return record, nil
	}

	record, err := s.repo.Find(ctx, kind, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, notFoundFor(kind)
		}
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, id, err)
	}
	s.toCache(ctx, itemKey(kind, id), record)
	return record, nil
}

// Warm reloads every reference list into the cache.
func (s *ReferenceService) Warm(ctx context.Context) error {
	for _, kind := range ReferenceKinds {
		if _, err := s.load(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReferenceService) load(ctx context.Context, kind model.ReferenceKind) ([]model.Record, error) {
	records, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	s.toCache(ctx, listKey(kind), records)
	return records, nil
}

func (s *ReferenceService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("WARN: reference cache read %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("WARN: reference cache entry %s is corrupt: %v", key, err)
		return false
	}
	return true
}

func (s *ReferenceService) toCache(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("WARN: reference cache encode %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		log.Printf("WARN: reference cache write %s: %v", key, err)
	}
}
