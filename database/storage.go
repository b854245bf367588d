package database

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// Nuke drops every application table and leaves the schema empty.
	// Init must be called afterwards to rebuild it.
	Nuke() error

	// GORM DB access
	GetDB() interface{} // Returns *gorm.DB for GORMStore
}
