package clients

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNameRequired   = errors.New("client name is required")
	ErrClientNotFound = errors.New("client not found")
)

type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

func (s *ClientService) Create(userID uuid.UUID, req ClientRequest) (*Client, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}

	client := Client{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Notes:   req.Notes,
	}
	if err := s.db.Create(&client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &client, nil
}

func (s *ClientService) Get(userID, clientID uuid.UUID) (*Client, error) {
	var client Client
	err := s.db.Scopes(scope.ForOwner(userID)).First(&client, "id = ?", clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	return &client, nil
}

// List returns the user's clients, optionally filtered by a name
// substring, newest first.
func (s *ClientService) List(userID uuid.UUID, search string, limit, offset int) ([]Client, int64, error) {
	q := s.db.Model(&Client{}).Scopes(scope.ForOwner(userID))
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	var list []Client
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return list, total, nil
}

func (s *ClientService) Update(userID, clientID uuid.UUID, req ClientRequest) (*Client, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}

	client, err := s.Get(userID, clientID)
	if err != nil {
		return nil, err
	}

	client.Name = strings.TrimSpace(req.Name)
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.Notes = req.Notes

	if err := s.db.Save(client).Error; err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

func (s *ClientService) Delete(userID, clientID uuid.UUID) error {
	res := s.db.Scopes(scope.ForOwner(userID)).Delete(&Client{}, "id = ?", clientID)
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}
