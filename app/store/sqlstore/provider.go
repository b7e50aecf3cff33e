package sqlstore

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/tablehub/tablehub/app/store"
	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/sqlstore"
	"github.com/tablehub/tablehub/pkg/types"
)

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.UserStore
	store.CoreEntityStore
	store.DynamicTableStore
	store.DynamicStorageStore
	store.DynamicRowStore
	store.AuditLogStore
	store.SchemaDefinitionStore
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)

	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}

	return func() *Provider {
		return provider
	}
}

// registered reports whether every store was wired by its init func.
func (p *Provider) registered() error {
	val := reflect.ValueOf(p.stores).Elem()
	for i := 0; i < val.NumField(); i++ {
		if val.Field(i).IsNil() {
			return fmt.Errorf("store %s is not registered", val.Type().Field(i).Name)
		}
	}
	return nil
}

// Install runs every embedded migration that has not been executed yet, in file name order.
func (p *Provider) Install() error {
	if err := p.registered(); err != nil {
		return err
	}

	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := CreateTableFiles.ReadDir(".")
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		if executed, err := p.isFileExecuted(file.Name()); err != nil {
			return err
		} else if executed {
			continue
		}

		content, err := CreateTableFiles.ReadFile(file.Name())
		if err != nil {
			return err
		}
		if err = p.executeSQLFile(string(content), file.Name()); err != nil {
			return err
		}
		if err = p.markFileExecuted(file.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetMaster().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(filename string) error {
	_, err := p.SqlProvider.GetMaster().Exec(
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) executeSQLFile(content, filename string) error {
	slog.Info("execute migration", slog.String("component", "sqlstore"), slog.String("file", filename))
	if _, err := p.SqlProvider.GetMaster().Exec(content); err != nil {
		return fmt.Errorf("migration %s: %w", filename, err)
	}
	return nil
}

func (p *Provider) UserStore() store.UserStore {
	return p.stores.UserStore
}

func (p *Provider) CoreEntityStore() store.CoreEntityStore {
	return p.stores.CoreEntityStore
}

func (p *Provider) DynamicTableStore() store.DynamicTableStore {
	return p.stores.DynamicTableStore
}

func (p *Provider) DynamicStorageStore() store.DynamicStorageStore {
	return p.stores.DynamicStorageStore
}

func (p *Provider) DynamicRowStore() store.DynamicRowStore {
	return p.stores.DynamicRowStore
}

func (p *Provider) AuditLogStore() store.AuditLogStore {
	return p.stores.AuditLogStore
}

func (p *Provider) SchemaDefinitionStore() store.SchemaDefinitionStore {
	return p.stores.SchemaDefinitionStore
}
