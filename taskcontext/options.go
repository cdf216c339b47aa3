package taskcontext

import "github.com/ctrlstack/taskcore/catalog"

// Option configures a TaskContext at construction time.
type Option func(*taskContextConfig)

type taskContextConfig struct {
	commands CommandFactory
	methods  MethodFactory
	data     DataSourceFactory
	attrs    AttributeFactory
	events   EventService
}

func defaultConfig() taskContextConfig {
	store := catalog.NewMemoryStore()
	return taskContextConfig{
		commands: NewMemCommandFactory(),
		methods:  NewMemMethodFactory(),
		data:     NewMemDataSourceFactory(),
		attrs:    NewCatalogAttributes(store),
		events:   NewCatalogEvents(store),
	}
}

// WithCommandFactory overrides the command catalog.
func WithCommandFactory(f CommandFactory) Option {
	return func(cfg *taskContextConfig) { cfg.commands = f }
}

// WithMethodFactory overrides the method catalog.
func WithMethodFactory(f MethodFactory) Option {
	return func(cfg *taskContextConfig) { cfg.methods = f }
}

// WithDataSourceFactory overrides the data source catalog.
func WithDataSourceFactory(f DataSourceFactory) Option {
	return func(cfg *taskContextConfig) { cfg.data = f }
}

// WithAttributeFactory overrides the attribute catalog. Typical use wraps a
// catalog.Store: taskcontext.WithAttributeFactory(taskcontext.NewCatalogAttributes(store)).
func WithAttributeFactory(f AttributeFactory) Option {
	return func(cfg *taskContextConfig) { cfg.attrs = f }
}

// WithEventService overrides the event catalog.
func WithEventService(f EventService) Option {
	return func(cfg *taskContextConfig) { cfg.events = f }
}
