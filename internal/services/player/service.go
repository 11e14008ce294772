// Package player reads and edits player profiles.
package player

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/storage"
)

// ProfileChanges holds profile fields to edit. Nil fields are left unchanged.
type ProfileChanges struct {
	Name          *string
	Phone         *string
	PaymentHandle *string
	NotifyEmail   *bool
	NotifySMS     *bool
}

// Service manages player profiles
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new player Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// Get returns a player by ID
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

// UpdateProfile applies changes to the player's own profile
func (s *Service) UpdateProfile(ctx context.Context, id model.PlayerID, changes ProfileChanges) (*model.Player, error) {
	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return nil, model.ErrValidation
		}
		player.Name = name
	}
	if changes.Phone != nil {
		player.Phone = strings.TrimSpace(*changes.Phone)
	}
	if changes.PaymentHandle != nil {
		player.PaymentHandle = strings.TrimPrefix(strings.TrimSpace(*changes.PaymentHandle), "@")
	}
	if changes.NotifyEmail != nil {
		player.Notifications.Email = *changes.NotifyEmail
	}
	if changes.NotifySMS != nil {
		player.Notifications.SMS = *changes.NotifySMS
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	s.logger.Info("player profile updated", slog.String("player_id", string(id)))
	return player, nil
}
