package archive

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/flowtree/pkg/flowtree/config"
)

// Open opens the store described by cfg. It returns (nil, nil) when
// archiving is disabled.
func Open(cfg config.Archive) (Store, error) {
	switch cfg.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		if cfg.Path == "" {
			return nil, errors.New("sqlite archive requires a path")
		}
		store, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
