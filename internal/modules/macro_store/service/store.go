package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"macro_trader/internal/models"
)

var ErrNotFound = stderrors.New("record not found")

// Ключи настроек (селекторы, выбранные пользователем на странице).
const (
	KeyBalanceSelector = "balanceSelector"
	KeyPriceSelector   = "priceSelector"
)

var SettingKeys = []string{KeyBalanceSelector, KeyPriceSelector}

// KV: хранилище записей key -> JSON. Записи пишутся целиком.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrNotFound
	Put(ctx context.Context, key string, value []byte) error
	PutMany(ctx context.Context, records map[string][]byte) error
	All(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
	Close() error
}

// Store: макросы и настройки поверх KV-драйвера.
type Store struct {
	kv  KV
	log *zap.Logger
}

func New(kv KV, log *zap.Logger) *Store {
	return &Store{kv: kv, log: log}
}

func (s *Store) Close() error { return s.kv.Close() }

// SaveMacro перезаписывает макрос своего типа целиком.
func (s *Store) SaveMacro(ctx context.Context, m models.Macro) error {
	if _, err := models.ParseMacroType(string(m.Type)); err != nil {
		return err
	}
	actions := m.Actions
	if actions == nil {
		actions = []models.MacroAction{}
	}
	b, err := sonic.Marshal(actions)
	if err != nil {
		return errors.Wrap(err, "encode macro")
	}
	if err := s.kv.Put(ctx, m.Type.StorageKey(), b); err != nil {
		return errors.Wrapf(err, "save %s", m.Type.StorageKey())
	}
	s.log.Info("[STORE] macro saved", zap.String("type", string(m.Type)), zap.Int("actions", len(actions)))
	return nil
}

func (s *Store) LoadMacro(ctx context.Context, t models.MacroType) (models.Macro, error) {
	b, err := s.kv.Get(ctx, t.StorageKey())
	if err != nil {
		return models.Macro{}, err
	}
	var actions []models.MacroAction
	if err := sonic.Unmarshal(b, &actions); err != nil {
		return models.Macro{}, errors.Wrapf(err, "decode %s", t.StorageKey())
	}
	return models.Macro{Type: t, Actions: actions}, nil
}

// LoadAll: все записанные макросы; отсутствующие типы пропускаются.
func (s *Store) LoadAll(ctx context.Context) (map[models.MacroType]models.Macro, error) {
	out := make(map[models.MacroType]models.Macro, len(models.MacroTypes))
	for _, t := range models.MacroTypes {
		m, err := s.LoadMacro(ctx, t)
		if stderrors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[t] = m
	}
	return out, nil
}

func (s *Store) SaveSetting(ctx context.Context, key, value string) error {
	if !isSettingKey(key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	b, err := sonic.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode setting")
	}
	return errors.Wrapf(s.kv.Put(ctx, key, b), "save %s", key)
}

func (s *Store) LoadSetting(ctx context.Context, key string) (string, error) {
	b, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", err
	}
	var v string
	if err := sonic.Unmarshal(b, &v); err != nil {
		return "", errors.Wrapf(err, "decode %s", key)
	}
	return v, nil
}

// Reset удаляет всё: макросы и селекторы.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return errors.Wrap(err, "reset store")
	}
	s.log.Warn("[STORE] all data removed")
	return nil
}

// Bundle: экспорт всех данных одним YAML-документом.
type Bundle struct {
	ExportedAt time.Time                       `yaml:"exported_at"`
	Macros     map[string][]models.MacroAction `yaml:"macros"`
	Settings   map[string]string               `yaml:"settings"`
}

func (s *Store) Export(ctx context.Context) ([]byte, error) {
	macros, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	b := Bundle{
		ExportedAt: time.Now().UTC(),
		Macros:     make(map[string][]models.MacroAction, len(macros)),
		Settings:   make(map[string]string),
	}
	for t, m := range macros {
		b.Macros[string(t)] = m.Actions
	}
	for _, key := range SettingKeys {
		v, err := s.LoadSetting(ctx, key)
		if stderrors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		b.Settings[key] = v
	}
	out, err := yaml.Marshal(&b)
	return out, errors.Wrap(err, "encode bundle")
}

// Import заменяет содержимое хранилища данными бандла.
func (s *Store) Import(ctx context.Context, raw []byte) (Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Bundle{}, errors.Wrap(err, "decode bundle")
	}

	records := make(map[string][]byte, len(b.Macros)+len(b.Settings))
	for name, actions := range b.Macros {
		t, err := models.ParseMacroType(strings.ToLower(name))
		if err != nil {
			return Bundle{}, err
		}
		if actions == nil {
			actions = []models.MacroAction{}
		}
		enc, err := sonic.Marshal(actions)
		if err != nil {
			return Bundle{}, errors.Wrap(err, "encode macro")
		}
		records[t.StorageKey()] = enc
	}
	for key, v := range b.Settings {
		if !isSettingKey(key) {
			return Bundle{}, fmt.Errorf("unknown setting %q", key)
		}
		enc, err := sonic.Marshal(v)
		if err != nil {
			return Bundle{}, errors.Wrap(err, "encode setting")
		}
		records[key] = enc
	}

	if err := s.kv.Clear(ctx); err != nil {
		return Bundle{}, errors.Wrap(err, "import: clear")
	}
	if err := s.kv.PutMany(ctx, records); err != nil {
		return Bundle{}, errors.Wrap(err, "import: write")
	}
	s.log.Info("[STORE] imported", zap.Int("macros", len(b.Macros)), zap.Int("settings", len(b.Settings)))
	return b, nil
}

func isSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}
