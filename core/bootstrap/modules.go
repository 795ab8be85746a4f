package bootstrap

import "context"

// Storage represents shared infrastructure passed to optional modules.
type Storage interface{}

// Seeder loads reference data into a storage implementation.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f(ctx, storage)
}

// Modules groups optional bootstrapping hooks executed after migrations.
type Modules struct {
	Seeders []Seeder
}

// RunSeeders executes each seeder in order, stopping at the first failure.
func RunSeeders(ctx context.Context, storage Storage, mods Modules) error {
	for _, s := range mods.Seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx, storage); err != nil {
			return err
		}
	}
	return nil
}
