// Package catalog: неизменяемый каталог предметов, подарков и турниров.
// Каталог читается из YAML один раз при старте и дальше передаётся сервисам
// как значение; глобального состояния нет.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/effects"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// MaxCost: верхняя граница цены в каталоге. С запасом держит расчёт скидок в int64.
const MaxCost int64 = 1_000_000_000

// Lifecycle: вид предмета.
type Lifecycle string

const (
	Permanent  Lifecycle = "permanent"  // Покупается один раз навсегда
	Consumable Lifecycle = "consumable" // Можно покупать повторно
)

// Item: предмет магазина.
type Item struct {
	ID            string
	Title         string
	Category      string
	Lifecycle     Lifecycle
	CostXP        int64
	CostRep       int64
	DurationHours int
	Effect        effects.Effect
}

// Permanent сообщает, что предмет одноразовый.
func (i Item) Permanent() bool { return i.Lifecycle == Permanent }

// ReputationOnly: предмет продаётся только за репутацию. Такие не разыгрываются в мистери-боксе.
func (i Item) ReputationOnly() bool { return i.CostXP == 0 && i.CostRep > 0 }

// GiftType: тип подарка.
type GiftType struct {
	Type   string
	Title  string
	Cost   int64
	Effect effects.Effect
}

// Tournament: турнир с платной регистрацией.
type Tournament struct {
	ID          string
	Title       string
	EntryFeeRep int64
}

// Catalog: неизменяемый набор предметов, подарков и турниров.
type Catalog struct {
	items       []Item
	itemIndex   map[string]int
	gifts       []GiftType
	giftIndex   map[string]int
	tournaments []Tournament
	tourIndex   map[string]int
}

// ---- YAML ----

type fileSchema struct {
	Items       []itemSchema       `yaml:"items" validate:"required,min=1,dive"`
	Gifts       []giftSchema       `yaml:"gifts" validate:"dive"`
	Tournaments []tournamentSchema `yaml:"tournaments" validate:"dive"`
}

type itemSchema struct {
	ID            string              `yaml:"id" validate:"required,max=64"`
	Title         string              `yaml:"title" validate:"required"`
	Category      string              `yaml:"category" validate:"required"`
	Lifecycle     Lifecycle           `yaml:"lifecycle" validate:"oneof=permanent consumable"`
	CostXP        int64               `yaml:"cost_xp" validate:"gte=0,lte=1000000000"`
	CostRep       int64               `yaml:"cost_rep" validate:"gte=0,lte=1000000000"`
	DurationHours int                 `yaml:"duration_hours" validate:"gte=0"`
	Effect        *effects.Descriptor `yaml:"effect" validate:"required"`
}

type giftSchema struct {
	Type   string              `yaml:"type" validate:"required,max=64"`
	Title  string              `yaml:"title" validate:"required"`
	Cost   int64               `yaml:"cost" validate:"gte=0,lte=1000000000"`
	Effect *effects.Descriptor `yaml:"effect" validate:"required"`
}

type tournamentSchema struct {
	ID          string `yaml:"id" validate:"required,max=64"`
	Title       string `yaml:"title" validate:"required"`
	EntryFeeRep int64  `yaml:"entry_fee_rep" validate:"gte=0,lte=1000000000"`
}

// Load читает каталог из файла. Пустой путь: встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает и проверяет YAML каталога.
// Битый дескриптор эффекта роняет загрузку целиком.
func Parse(data []byte) (*Catalog, error) {
	var raw fileSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	if err := validator.New().Struct(raw); err != nil {
		return nil, fmt.Errorf("некорректный каталог: %w", err)
	}

	items := make([]Item, 0, len(raw.Items))
	for _, it := range raw.Items {
		d := *it.Effect
		// Эффект наследует id и срок предмета, если в дескрипторе они не заданы
		if d.Kind == effects.KindPermanentUnlock && d.ItemID == "" {
			d.ItemID = it.ID
		}
		if d.Kind == effects.KindTimedBoost && d.DurationHours == 0 {
			d.DurationHours = it.DurationHours
		}
		eff, err := effects.Decode(d)
		if err != nil {
			return nil, fmt.Errorf("предмет %s: %w", it.ID, err)
		}
		items = append(items, Item{
			ID:            it.ID,
			Title:         it.Title,
			Category:      it.Category,
			Lifecycle:     it.Lifecycle,
			CostXP:        it.CostXP,
			CostRep:       it.CostRep,
			DurationHours: it.DurationHours,
			Effect:        eff,
		})
	}

	gifts := make([]GiftType, 0, len(raw.Gifts))
	for _, g := range raw.Gifts {
		eff, err := effects.Decode(*g.Effect)
		if err != nil {
			return nil, fmt.Errorf("подарок %s: %w", g.Type, err)
		}
		gifts = append(gifts, GiftType{Type: g.Type, Title: g.Title, Cost: g.Cost, Effect: eff})
	}

	tournaments := make([]Tournament, 0, len(raw.Tournaments))
	for _, tr := range raw.Tournaments {
		tournaments = append(tournaments, Tournament{ID: tr.ID, Title: tr.Title, EntryFeeRep: tr.EntryFeeRep})
	}

	return New(items, gifts, tournaments)
}

// New собирает каталог из готовых значений. Идентификаторы должны быть уникальны.
// Разблокировка (PermanentUnlock) допустима только у постоянного предмета и только
// для него самого, а в подарке только для постоянного предмета каталога: иначе
// купленный предмет попал бы в набор навсегда купленных и остался бы в продаже.
func New(items []Item, gifts []GiftType, tournaments []Tournament) (*Catalog, error) {
	c := &Catalog{
		items:       append([]Item(nil), items...),
		itemIndex:   make(map[string]int, len(items)),
		gifts:       append([]GiftType(nil), gifts...),
		giftIndex:   make(map[string]int, len(gifts)),
		tournaments: append([]Tournament(nil), tournaments...),
		tourIndex:   make(map[string]int, len(tournaments)),
	}
	for i, it := range c.items {
		if it.Effect == nil {
			return nil, fmt.Errorf("предмет %s: %w", it.ID, common.ErrInvalidEffect)
		}
		if _, dup := c.itemIndex[it.ID]; dup {
			return nil, fmt.Errorf("дублирующийся предмет %q", it.ID)
		}
		if !validCost(it.CostXP) || !validCost(it.CostRep) {
			return nil, fmt.Errorf("предмет %s: цена вне диапазона 0..%d", it.ID, MaxCost)
		}
		if u, ok := it.Effect.(effects.PermanentUnlock); ok && (!it.Permanent() || u.ItemID != it.ID) {
			return nil, fmt.Errorf("предмет %s: разблокировка %q у предмета %s: %w",
				it.ID, u.ItemID, it.Lifecycle, common.ErrInvalidEffect)
		}
		c.itemIndex[it.ID] = i
	}
	for i, g := range c.gifts {
		if g.Effect == nil {
			return nil, fmt.Errorf("подарок %s: %w", g.Type, common.ErrInvalidEffect)
		}
		if _, dup := c.giftIndex[g.Type]; dup {
			return nil, fmt.Errorf("дублирующийся подарок %q", g.Type)
		}
		if !validCost(g.Cost) {
			return nil, fmt.Errorf("подарок %s: цена вне диапазона 0..%d", g.Type, MaxCost)
		}
		if u, ok := g.Effect.(effects.PermanentUnlock); ok {
			j, found := c.itemIndex[u.ItemID]
			if !found || !c.items[j].Permanent() {
				return nil, fmt.Errorf("подарок %s: разблокировка %q не постоянного предмета: %w",
					g.Type, u.ItemID, common.ErrInvalidEffect)
			}
		}
		c.giftIndex[g.Type] = i
	}
	for i, tr := range c.tournaments {
		if !validCost(tr.EntryFeeRep) {
			return nil, fmt.Errorf("турнир %s: взнос вне диапазона 0..%d", tr.ID, MaxCost)
		}
		if _, dup := c.tourIndex[tr.ID]; dup {
			return nil, fmt.Errorf("дублирующийся турнир %q", tr.ID)
		}
		c.tourIndex[tr.ID] = i
	}
	return c, nil
}

func validCost(v int64) bool { return v >= 0 && v <= MaxCost }

// Item возвращает предмет по id.
func (c *Catalog) Item(id string) (Item, error) {
	i, ok := c.itemIndex[id]
	if !ok {
		return Item{}, fmt.Errorf("%q: %w", id, common.ErrItemNotFound)
	}
	return c.items[i], nil
}

// Items возвращает все предметы в порядке файла.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Len: число предметов.
func (c *Catalog) Len() int { return len(c.items) }

// At возвращает предмет по позиции.
func (c *Catalog) At(i int) Item { return c.items[i] }

// Gift возвращает тип подарка.
func (c *Catalog) Gift(giftType string) (GiftType, error) {
	i, ok := c.giftIndex[giftType]
	if !ok {
		return GiftType{}, fmt.Errorf("%q: %w", giftType, common.ErrInvalidGiftType)
	}
	return c.gifts[i], nil
}

// Gifts возвращает все типы подарков.
func (c *Catalog) Gifts() []GiftType {
	return append([]GiftType(nil), c.gifts...)
}

// Tournament возвращает турнир.
func (c *Catalog) Tournament(id string) (Tournament, error) {
	i, ok := c.tourIndex[id]
	if !ok {
		return Tournament{}, fmt.Errorf("%q: %w", id, common.ErrTournamentNotFound)
	}
	return c.tournaments[i], nil
}

// Tournaments возвращает все турниры.
func (c *Catalog) Tournaments() []Tournament {
	return append([]Tournament(nil), c.tournaments...)
}
