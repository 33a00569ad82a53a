// Package effects описывает эффекты предметов и подарков.
//
// Эффект это закрытый вариантный тип (PermanentUnlock, TimedBoost, SkipCredit,
// TitleOverwrite). Дескриптор из каталога или из подарка превращается в эффект
// через Decode. Неизвестный или битый дескриптор всегда даёт common.ErrInvalidEffect
// и никогда не пропускается молча.
package effects

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/taslogit/pressfbot/internal/common"
)

// Kind: тег варианта эффекта.
type Kind string

const (
	KindPermanentUnlock Kind = "permanent_unlock"
	KindTimedBoost      Kind = "timed_boost"
	KindSkipCredit      Kind = "skip_credit"
	KindTitleOverwrite  Kind = "title_overwrite"
)

// Descriptor: сериализуемая форма эффекта (YAML каталога, JSONB подарка).
type Descriptor struct {
	Kind          Kind    `yaml:"kind" json:"kind"`
	ItemID        string  `yaml:"item_id,omitempty" json:"item_id,omitempty"`
	BoostType     string  `yaml:"boost_type,omitempty" json:"boost_type,omitempty"`
	Multiplier    float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	DurationHours int     `yaml:"duration_hours,omitempty" json:"duration_hours,omitempty"`
	Count         int     `yaml:"count,omitempty" json:"count,omitempty"`
	Title         string  `yaml:"title,omitempty" json:"title,omitempty"`
}

// Effect: один из вариантов ниже. Других реализаций нет.
type Effect interface {
	Kind() Kind
	Descriptor() Descriptor
	sealed()
}

// PermanentUnlock добавляет предмет в набор купленных.
type PermanentUnlock struct {
	ItemID string
}

// TimedBoost включает или продлевает бустер.
type TimedBoost struct {
	BoostType  string
	Multiplier float64
	Duration   time.Duration
}

// SkipCredit добавляет бесплатные пропуски стрика.
type SkipCredit struct {
	Count int
}

// TitleOverwrite меняет титул навсегда.
// Duration сохраняется из дескриптора, но не применяется: автоматического отката титула нет.
type TitleOverwrite struct {
	Title    string
	Duration time.Duration
}

func (PermanentUnlock) Kind() Kind { return KindPermanentUnlock }
func (TimedBoost) Kind() Kind      { return KindTimedBoost }
func (SkipCredit) Kind() Kind      { return KindSkipCredit }
func (TitleOverwrite) Kind() Kind  { return KindTitleOverwrite }

func (PermanentUnlock) sealed() {}
func (TimedBoost) sealed()      {}
func (SkipCredit) sealed()      {}
func (TitleOverwrite) sealed()  {}

func (e PermanentUnlock) Descriptor() Descriptor {
	return Descriptor{Kind: KindPermanentUnlock, ItemID: e.ItemID}
}

func (e TimedBoost) Descriptor() Descriptor {
	return Descriptor{
		Kind:          KindTimedBoost,
		BoostType:     e.BoostType,
		Multiplier:    e.Multiplier,
		DurationHours: int(e.Duration / time.Hour),
	}
}

func (e SkipCredit) Descriptor() Descriptor {
	return Descriptor{Kind: KindSkipCredit, Count: e.Count}
}

func (e TitleOverwrite) Descriptor() Descriptor {
	return Descriptor{Kind: KindTitleOverwrite, Title: e.Title, DurationHours: int(e.Duration / time.Hour)}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidEffect, fmt.Sprintf(format, args...))
}

// Decode проверяет дескриптор и превращает его в эффект.
func Decode(d Descriptor) (Effect, error) {
	switch d.Kind {
	case KindPermanentUnlock:
		if d.ItemID == "" {
			return nil, invalid("permanent_unlock без item_id")
		}
		return PermanentUnlock{ItemID: d.ItemID}, nil

	case KindTimedBoost:
		if d.BoostType == "" {
			return nil, invalid("timed_boost без boost_type")
		}
		if d.Multiplier <= 0 {
			return nil, invalid("timed_boost %s: multiplier должен быть > 0", d.BoostType)
		}
		if d.DurationHours <= 0 {
			return nil, invalid("timed_boost %s: duration_hours должен быть > 0", d.BoostType)
		}
		return TimedBoost{
			BoostType:  d.BoostType,
			Multiplier: d.Multiplier,
			Duration:   time.Duration(d.DurationHours) * time.Hour,
		}, nil

	case KindSkipCredit:
		if d.Count <= 0 {
			return nil, invalid("skip_credit: count должен быть > 0")
		}
		return SkipCredit{Count: d.Count}, nil

	case KindTitleOverwrite:
		if d.Title == "" {
			return nil, invalid("title_overwrite без title")
		}
		if d.DurationHours < 0 {
			return nil, invalid("title_overwrite: отрицательный duration_hours")
		}
		return TitleOverwrite{Title: d.Title, Duration: time.Duration(d.DurationHours) * time.Hour}, nil
	}
	return nil, invalid("неизвестный тип %q", d.Kind)
}

// DecodeJSON разбирает дескриптор из JSON (колонка gifts.effect).
func DecodeJSON(raw []byte) (Effect, error) {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, invalid("битый JSON: %v", err)
	}
	return Decode(d)
}

// EncodeJSON сериализует эффект для хранения в подарке.
func EncodeJSON(e Effect) ([]byte, error) {
	if e == nil {
		return nil, invalid("пустой эффект")
	}
	return json.Marshal(e.Descriptor())
}
