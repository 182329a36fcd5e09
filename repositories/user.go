//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"direct-chat/domain"
	"direct-chat/errors"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

type IUserRepository interface {
	CreateUser(email, displayName, hashedPassword string) (domain.UserID, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(userID domain.UserID) (User, error)
	ListUsers() ([]User, error)
}

const (
	userPrefix      = "user:"
	userIndexPrefix = "uid:"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the domain-friendly representation of a user in the repository layer.
// Equivalent to domain.Message for the account domain.
type User struct {
	ID           domain.UserID
	Email        string
	DisplayName  string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

func (u User) ToDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

// CreateUser persists an already hashed account in BadgerDB.
// It returns the newly generated User ID.
func (u UserRepository) CreateUser(email, displayName, hashedPassword string) (domain.UserID, error) {
	user := User{
		ID:           domain.UserID(uuid.New().String()),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		if err := checkEmailFree(txn, email); err != nil {
			return err
		}
		if err := txn.Set([]byte(userPrefix+email), encodeUser(user)); err != nil {
			return err
		}
		return txn.Set([]byte(userIndexPrefix+user.ID.String()), []byte(email))
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// GetUserByEmail retrieves a user from Badger and converts it to the repository.User struct.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, email)
		return err
	})
	return user, err
}

func (u UserRepository) GetUserByID(userID domain.UserID) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userIndexPrefix + userID.String()))
		if err != nil {
			return mapNotFound(err)
		}
		email, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(email))
		return err
	})
	return user, err
}

// ListUsers scans every account, ordered by email.
func (u UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				user, err := decodeUser(value)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// checkEmailFree only succeeds when the email is known to be unused;
// any other read failure is returned as is.
func checkEmailFree(txn *badger.Txn, email string) error {
	_, err := txn.Get([]byte(userPrefix + email))
	switch {
	case err == nil:
		return errors.ErrUserAlreadyExists
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return nil
	default:
		return fmt.Errorf("check email %s: %w", email, err)
	}
}

func getUser(txn *badger.Txn, email string) (User, error) {
	item, err := txn.Get([]byte(userPrefix + email))
	if err != nil {
		return User{}, mapNotFound(err)
	}
	var user User
	err = item.Value(func(value []byte) error {
		user, err = decodeUser(value)
		return err
	})
	return user, err
}

func mapNotFound(err error) error {
	if err == badger.ErrKeyNotFound {
		return errors.ErrUserNotFound
	}
	return err
}

const (
	userFieldID protowire.Number = iota + 1
	userFieldEmail
	userFieldDisplayName
	userFieldPasswordHash
	userFieldCreatedAt
	userFieldRole
)

func encodeUser(user User) []byte {
	var b []byte
	b = appendString(b, userFieldID, user.ID.String())
	b = appendString(b, userFieldEmail, user.Email)
	b = appendString(b, userFieldDisplayName, user.DisplayName)
	b = appendString(b, userFieldPasswordHash, user.PasswordHash)
	b = appendVarint(b, userFieldCreatedAt, uint64(user.CreatedAt.Unix()))
	for _, role := range user.Roles {
		b = appendString(b, userFieldRole, role)
	}
	return b
}

func decodeUser(b []byte) (User, error) {
	var user User
	err := fieldVisitor{
		onString: func(num protowire.Number, v string) {
			switch num {
			case userFieldID:
				user.ID = domain.UserID(v)
			case userFieldEmail:
				user.Email = v
			case userFieldDisplayName:
				user.DisplayName = v
			case userFieldPasswordHash:
				user.PasswordHash = v
			case userFieldRole:
				user.Roles = append(user.Roles, v)
			}
		},
		onVarint: func(num protowire.Number, v uint64) {
			if num == userFieldCreatedAt {
				user.CreatedAt = time.Unix(int64(v), 0).UTC()
			}
		},
	}.consume(b)
	if err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}
