package archive

import (
	"database/sql"
	"sync"
)

var (
	repo Repository
	svc  Service

	repoOnce sync.Once
	svcOnce  sync.Once
)

func provideRepository(db *sql.DB) (Repository, error) {
	var err error
	repoOnce.Do(func() {
		repo, err = NewRepository(db)
	})
	return repo, err
}

func provideService(r Repository) Service {
	svcOnce.Do(func() {
		svc = NewService(r)
	})
	return svc
}

// Dependency injection container.
func Container(db *sql.DB) (Service, error) {
	r, err := provideRepository(db)
	if err != nil {
		return nil, err
	}
	return provideService(r), nil
}
