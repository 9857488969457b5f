package database

import (
	"fmt"
	"sort"
	"sync"

	"table-sync/internal/model"
)

// DriverRegistry manages driver instances and creation
type DriverRegistry struct {
	drivers map[model.StoreType]func() Driver
	mutex   sync.RWMutex
}

var (
	globalRegistry     *DriverRegistry
	globalRegistryOnce sync.Once
)

// GetDriverRegistry returns the process-wide registry
func GetDriverRegistry() *DriverRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewDriverRegistry()
	})
	return globalRegistry
}

// NewDriverRegistry creates a new driver registry
func NewDriverRegistry() *DriverRegistry {
	registry := &DriverRegistry{
		drivers: make(map[model.StoreType]func() Driver),
	}

	registry.registerDrivers()

	return registry
}

func (dr *DriverRegistry) registerDrivers() {
	dr.mutex.Lock()
	defer dr.mutex.Unlock()

	dr.register(model.StoreTypePostgreSQL, func() Driver {
		return &PostgreSQLDriver{}
	})
	dr.register(model.StoreTypeMySQL, func() Driver {
		return &MySQLDriver{}
	})
	dr.register(model.StoreTypeMariaDB, func() Driver {
		return &MySQLDriver{}
	})
	dr.register(model.StoreTypeSQLite, func() Driver {
		return &SQLiteDriver{}
	})
}

func (dr *DriverRegistry) register(storeType model.StoreType, factory func() Driver) {
	dr.drivers[storeType] = factory
}

// GetDriver returns a driver for the store type
func (dr *DriverRegistry) GetDriver(storeType model.StoreType) (Driver, error) {
	dr.mutex.RLock()
	defer dr.mutex.RUnlock()

	factory, exists := dr.drivers[storeType]
	if !exists {
		return nil, fmt.Errorf("unsupported store driver: %q", storeType)
	}
	return factory(), nil
}

// IsSupported checks if a store type has a registered driver
func (dr *DriverRegistry) IsSupported(storeType model.StoreType) bool {
	dr.mutex.RLock()
	defer dr.mutex.RUnlock()

	_, exists := dr.drivers[storeType]
	return exists
}

// SupportedTypes lists the registered store types
func (dr *DriverRegistry) SupportedTypes() []model.StoreType {
	dr.mutex.RLock()
	defer dr.mutex.RUnlock()

	types := make([]model.StoreType, 0, len(dr.drivers))
	for t := range dr.drivers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
