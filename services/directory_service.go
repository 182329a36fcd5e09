//go:generate go run go.uber.org/mock/mockgen -source=directory_service.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/repositories"

	"github.com/samber/lo"
)

type IDirectoryService interface {
	ListUsers(requesterID domain.UserID) ([]domain.Contact, error)
}

// DirectoryService lets a user discover the other accounts and who is online.
type DirectoryService struct {
	userRepository repositories.IUserRepository
	registry       contract.IRegistry
}

func NewDirectoryService(repo repositories.IUserRepository, registry contract.IRegistry) *DirectoryService {
	return &DirectoryService{userRepository: repo, registry: registry}
}

// ListUsers returns every account except the requester.
// The online flag is a point-in-time read of the registry.
func (s *DirectoryService) ListUsers(requesterID domain.UserID) ([]domain.Contact, error) {
	users, err := s.userRepository.ListUsers()
	if err != nil {
		return nil, err
	}
	others := lo.Filter(users, func(item repositories.User, _ int) bool {
		return item.ID != requesterID
	})
	return lo.Map(others, func(item repositories.User, _ int) domain.Contact {
		_, online := s.registry.Lookup(item.ID)
		return domain.Contact{User: item.ToDomain(), Online: online}
	}), nil
}
