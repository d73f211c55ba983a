package boltdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/graderly/core/user"
)

// userRecord is the stored form of user.User; the latter never serializes its hash.
type userRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newUserRecord(usr user.User) userRecord {
	return userRecord{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
}

func (r userRecord) user() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type userRepository struct {
	db *bbolt.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *bbolt.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		byEmail := tx.Bucket(usersByEmailBucket)
		if byEmail.Get([]byte(usr.Email)) != nil {
			return user.ErrEmailExists
		}
		if err := byEmail.Put([]byte(usr.Email), []byte(usr.ID)); err != nil {
			return err
		}
		return put(tx.Bucket(usersBucket), usr.ID, newUserRecord(usr))
	})
	if err != nil {
		if err == user.ErrEmailExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "storing user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		users, byEmail := tx.Bucket(usersBucket), tx.Bucket(usersByEmailBucket)

		var prev userRecord
		if err := get(users, usr.ID, &prev, user.ErrNotFound); err != nil {
			return err
		}
		if prev.Email != usr.Email {
			if byEmail.Get([]byte(usr.Email)) != nil {
				return user.ErrEmailExists
			}
			if err := byEmail.Delete([]byte(prev.Email)); err != nil {
				return err
			}
			if err := byEmail.Put([]byte(usr.Email), []byte(usr.ID)); err != nil {
				return err
			}
		}
		return put(users, usr.ID, newUserRecord(usr))
	})
	if err != nil {
		if err == user.ErrNotFound || err == user.ErrEmailExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, id string) (user.User, error) {
	var rec userRecord
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(usersBucket), id, &rec, user.ErrNotFound)
	})
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "reading user")
	}
	return rec.user(), nil
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	var rec userRecord
	err := repo.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(usersByEmailBucket).Get([]byte(email))
		if id == nil {
			return user.ErrNotFound
		}
		return get(tx.Bucket(usersBucket), string(id), &rec, user.ErrNotFound)
	})
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "reading user")
	}
	return rec.user(), nil
}
