// Package player — service.go собирает состояние игрока для API.
// Стадии культур всегда пересчитываются часами роста на момент ответа,
// кэшированных стадий в системе нет.
package player

import (
	"context"
	"time"

	"serotonyl.ru/farm-webapp/internal/features/crops"
	"serotonyl.ru/farm-webapp/internal/features/nonce"
)

// Service собирает ответы о состоянии игрока.
type Service struct {
	repo   *Repository
	nonces *nonce.Service
	clock  *crops.Clock
}

// NewService создаёт сервис состояния игрока.
func NewService(repo *Repository, nonces *nonce.Service, clock *crops.Clock) *Service {
	return &Service{repo: repo, nonces: nonces, clock: clock}
}

// Repo отдаёт репозиторий игроков другим сервисам.
func (s *Service) Repo() *Repository {
	return s.repo
}

// BuildState возвращает свежий снимок состояния игрока
// и заодно перевыпускает токен действия.
func (s *Service) BuildState(ctx context.Context, userID int64) (*State, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// перевыпуск на каждом чтении безопасен: токен одноразовый,
	// клиент всегда работает с последним полученным
	n, err := s.nonces.Issue(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.StateWithNonce(ctx, p, n)
}

// StateWithNonce собирает снимок состояния вокруг уже известных
// игрока и токена (движок действий передаёт сюда токен, ротированный
// при входе в действие).
func (s *Service) StateWithNonce(ctx context.Context, p *Player, n *nonce.Nonce) (*State, error) {
	now := time.Now().UTC()

	plots, err := s.Plots(ctx, p.UserID, now)
	if err != nil {
		return nil, err
	}

	return &State{
		UserID:        p.UserID,
		Username:      p.Username,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		DisplayName:   p.DisplayName,
		Balance:       p.Balance,
		FieldsOwned:   p.FieldsOwned,
		Level:         p.Level,
		XP:            p.XP,
		IsBlocked:     p.IsBlocked,
		BlockedReason: p.BlockedReason,
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),

		ActionNonce:      n.Value,
		NonceExpiry:      n.ExpiresAt.UTC().Format(time.RFC3339),
		ServerTimeUnixMS: now.UnixMilli(),
		Plots:            plots,
	}, nil
}

// Plots возвращает грядки игрока с пересчитанными стадиями.
func (s *Service) Plots(ctx context.Context, userID int64, now time.Time) ([]PlotView, error) {
	rows, err := s.repo.ListPlots(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]PlotView, 0, len(rows))
	for _, r := range rows {
		v := PlotView{Idx: r.Idx}
		if r.CropKey != "" && r.PlantedAt != nil {
			planted := r.PlantedAt.UTC()
			v.CropKey = &r.CropKey

			iso := planted.Format(time.RFC3339)
			ms := planted.UnixMilli()
			v.PlantedAtISO = &iso
			v.PlantedAtUnixMS = &ms

			// культура из снятого с выдачи каталога: отдаём грядку
			// без стадии, а не роняем весь ответ
			if info, err := s.clock.Info(r.CropKey, planted, now); err == nil {
				stage := string(info.Stage)
				readyISO := info.ReadyAt.UTC().Format(time.RFC3339)
				readyMS := info.ReadyAt.UnixMilli()
				remaining := info.RemainingMS
				v.Stage = &stage
				v.ReadyAt = &readyISO
				v.ReadyAtUnixMS = &readyMS
				v.RemainingMS = &remaining
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// Inventory возвращает инвентарь игрока для API.
func (s *Service) Inventory(ctx context.Context, userID int64) ([]InventoryItem, error) {
	rows, err := s.repo.ListInventory(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]InventoryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, InventoryItem{ItemKey: r.ItemKey, Qty: r.Qty})
	}
	return items, nil
}
