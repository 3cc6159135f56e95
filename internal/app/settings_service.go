package app

import (
	"context"
	"encoding/json"

	"liveclass-admin/internal/domain"
)

// SettingsService persists the quiz timer.
type SettingsService struct {
	store *guardedStore
}

func NewSettingsService(store DocumentStore, cfg ServiceConfig) *SettingsService {
	return &SettingsService{store: guard(store, cfg.withDefaults())}
}

// SetTimer stores the quiz duration and returns it in seconds.
func (s *SettingsService) SetTimer(ctx context.Context, hours, minutes, seconds int) (int, error) {
	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, domain.ErrInvalidTimer
	}
	total := hours*3600 + minutes*60 + seconds
	data, err := json.Marshal(domain.TimerSetting{Timer: total})
	if err != nil {
		return 0, err
	}
	if err := s.store.Set(ctx, domain.CollectionSettings, domain.KeyTimer, data); err != nil {
		return 0, err
	}
	return total, nil
}

// Timer returns the stored duration in seconds, or 0 when none was set.
func (s *SettingsService) Timer(ctx context.Context) (int, error) {
	doc, found, err := s.store.Get(ctx, domain.CollectionSettings, domain.KeyTimer)
	if err != nil || !found {
		return 0, err
	}
	var setting domain.TimerSetting
	if err := json.Unmarshal(doc.Data, &setting); err != nil {
		return 0, persistenceErr("decode timer", err)
	}
	return setting.Timer, nil
}
