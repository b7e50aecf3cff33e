package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

const (
	bootstrapReason = "bootstrap sample data"

	generatedPasswordLength = 16
)

// StandardTables are defined by every bootstrap run.
var StandardTables = []types.DynamicTable{
	{
		Name: "employees",
		Columns: types.ColumnList{
			{Name: "name", Type: types.ColumnTypeString},
			{Name: "position", Type: types.ColumnTypeString},
			{Name: "salary", Type: types.ColumnTypeInteger},
		},
	},
	{
		Name: "projects",
		Columns: types.ColumnList{
			{Name: "name", Type: types.ColumnTypeString},
			{Name: "description", Type: types.ColumnTypeString},
			{Name: "status", Type: types.ColumnTypeString},
		},
	},
}

var standardCoreEntities = []types.CoreEntity{
	{Name: "Core Entry 1", Description: "This is the first core entry"},
	{Name: "Core Entry 2", Description: "This is the second core entry"},
}

type sampleUser struct {
	name         string
	capabilities []string
	tables       []string
}

var sampleUsers = []sampleUser{
	{name: "user1", capabilities: []string{types.CapabilityView}, tables: []string{"employees"}},
	{name: "user2", capabilities: []string{types.CapabilityView, types.CapabilityEdit}, tables: []string{"projects"}},
}

var sampleRows = map[string][]map[string]any{
	"employees": {
		{"name": "John Doe", "position": "Developer", "salary": 75000},
		{"name": "Jane Smith", "position": "Designer", "salary": 65000},
	},
	"projects": {
		{"name": "Project A", "description": "First project", "status": "In Progress"},
		{"name": "Project B", "description": "Second project", "status": "Completed"},
	},
}

var sampleSchema = types.SchemaDefinition{
	Name:        "Employee Management",
	Description: "Employees and the projects they work on",
	Structure: types.Relationships{
		{Parent: "employees", Child: "projects", Type: types.RelationshipOneToMany},
	},
	Version: 1,
}

type BootstrapLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewBootstrapLogic(ctx context.Context, core *core.Core) *BootstrapLogic {
	return &BootstrapLogic{
		ctx:  ctx,
		core: core,
	}
}

type BootstrapReport struct {
	AdminID string `json:"admin_id"`
	// AdminPassword is only set when the admin was created with a generated password.
	AdminPassword string `json:"admin_password,omitempty"`
	// SamplePasswords holds the generated passwords of the sample users created by this run.
	SamplePasswords map[string]string `json:"sample_passwords,omitempty"`
	CreatedUsers    []string          `json:"created_users"`
	CreatedCore     []string          `json:"created_core"`
	CreatedTables   []string          `json:"created_tables"`
	SampleRows      int               `json:"sample_rows"`
	CreatedSchema   bool              `json:"created_schema"`
}

// Run creates what is missing and leaves existing data untouched, so it can run any number of times.
func (l *BootstrapLogic) Run() (*BootstrapReport, error) {
	cfg := l.core.Cfg().Bootstrap
	report := &BootstrapReport{}

	password := cfg.AdminPassword
	if password == "" {
		password = utils.RandomStr(generatedPasswordLength)
	}
	admin, created, err := l.ensureUser(cfg.AdminName, password, types.AllCapabilities, nil, true, "")
	if err != nil {
		return nil, err
	}
	report.AdminID = admin.ID
	if created {
		report.CreatedUsers = append(report.CreatedUsers, admin.Name)
		if cfg.AdminPassword == "" {
			report.AdminPassword = password
		}
	}

	coreRef, err := l.ensureCoreEntities(report)
	if err != nil {
		return nil, err
	}

	for _, t := range StandardTables {
		t.OwnerID = admin.ID
		_, _, created, err := defineTable(l.ctx, l.core, t, admin.ID, bootstrapReason)
		if err != nil {
			return nil, translateErr("BootstrapLogic.Run.defineTable", err)
		}
		if created {
			report.CreatedTables = append(report.CreatedTables, t.Name)
		}
		if !cfg.SampleData {
			continue
		}
		n, err := l.ensureSampleRows(admin.ID, t.Name, coreRef)
		if err != nil {
			return nil, err
		}
		report.SampleRows += n
	}

	if cfg.SampleData {
		for _, u := range sampleUsers {
			password := utils.RandomStr(generatedPasswordLength)
			user, created, err := l.ensureUser(u.name, password, u.capabilities, u.tables, false, admin.ID)
			if err != nil {
				return nil, err
			}
			if created {
				report.CreatedUsers = append(report.CreatedUsers, user.Name)
				if report.SamplePasswords == nil {
					report.SamplePasswords = make(map[string]string)
				}
				report.SamplePasswords[user.Name] = password
			}
		}
	}

	if report.CreatedSchema, err = l.ensureSampleSchema(admin.ID); err != nil {
		return nil, err
	}

	slog.Info("bootstrap finished", slog.String("component", "logic.v1.bootstrap"),
		slog.Any("created_users", report.CreatedUsers), slog.Any("created_tables", report.CreatedTables),
		slog.Int("sample_rows", report.SampleRows), slog.Bool("created_schema", report.CreatedSchema))
	return report, nil
}

// ensureUser creates the user when no user with that name exists. auditor is the acting
// user of the audit entry, empty means the new user itself.
func (l *BootstrapLogic) ensureUser(name, password string, capabilities, tables []string, admin bool, auditor string) (*types.User, bool, error) {
	existing, err := l.core.Store().UserStore().GetByName(l.ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, errors.New("BootstrapLogic.ensureUser.UserStore.GetByName", i18n.ERROR_INTERNAL, err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, false, errors.New("BootstrapLogic.ensureUser.hashPassword", i18n.ERROR_INTERNAL, err)
	}
	user := types.User{
		ID:               utils.GenUniqIDStr(),
		Name:             name,
		Password:         hashed,
		Capabilities:     types.NewStringSet(capabilities...),
		AccessibleTables: types.NewStringSet(tables...),
		IsAdmin:          admin,
		CreatedAt:        time.Now().Unix(),
		UpdatedAt:        time.Now().Unix(),
	}
	if auditor == "" {
		auditor = user.ID
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().UserStore().Create(ctx, user); err != nil {
			return err
		}
		return recordAudit(ctx, l.core, auditor, types.AuditActionCreateUser, types.TABLE_USER.Name(), nil, bootstrapReason)
	})
	if err != nil {
		return nil, false, errors.New("BootstrapLogic.ensureUser.Transaction", i18n.ERROR_INTERNAL, err)
	}
	return &user, true, nil
}

// ensureCoreEntities returns the uuid of the first standard core entity.
func (l *BootstrapLogic) ensureCoreEntities(report *BootstrapReport) (string, error) {
	var first string
	for _, c := range standardCoreEntities {
		existing, err := l.core.Store().CoreEntityStore().GetByName(l.ctx, c.Name)
		if err != nil && err != sql.ErrNoRows {
			return "", errors.New("BootstrapLogic.ensureCoreEntities.GetByName", i18n.ERROR_INTERNAL, err)
		}
		if existing == nil {
			if existing, err = createCoreEntity(l.ctx, l.core, c.Name, c.Description); err != nil {
				return "", err
			}
			report.CreatedCore = append(report.CreatedCore, c.Name)
		}
		if first == "" {
			first = existing.UUID
		}
	}
	return first, nil
}

// ensureSampleRows only fills empty tables.
func (l *BootstrapLogic) ensureSampleRows(adminID, table, coreRef string) (int, error) {
	h, err := l.core.Registry().Resolve(l.ctx, table)
	if err != nil {
		return 0, translateErr("BootstrapLogic.ensureSampleRows.Registry.Resolve", err)
	}
	total, err := l.core.Store().DynamicRowStore().Total(l.ctx, h, types.ListDynamicRowOptions{})
	if err != nil {
		return 0, translateErr("BootstrapLogic.ensureSampleRows.Total", err)
	}
	if total > 0 {
		return 0, nil
	}
	if h.Independent() {
		coreRef = ""
	}

	rows := sampleRows[table]
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		for _, raw := range rows {
			values, err := h.CoerceValues(raw)
			if err != nil {
				return err
			}
			id, err := l.core.Store().DynamicRowStore().Insert(ctx, h, coreRef, values)
			if err != nil {
				return err
			}
			if err = recordAudit(ctx, l.core, adminID, types.AuditActionAdd, table, &id, bootstrapReason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, translateErr("BootstrapLogic.ensureSampleRows.Transaction", err)
	}
	return len(rows), nil
}

func (l *BootstrapLogic) ensureSampleSchema(adminID string) (bool, error) {
	store := l.core.Store().SchemaDefinitionStore()
	current, err := store.MaxVersion(l.ctx, sampleSchema.Name)
	if err != nil {
		return false, translateErr("BootstrapLogic.ensureSampleSchema.MaxVersion", err)
	}
	if current > 0 {
		return false, nil
	}

	schema := sampleSchema
	schema.OwnerID = adminID
	schema.CreatedAt, schema.UpdatedAt = time.Now().Unix(), time.Now().Unix()
	if _, err = store.Create(l.ctx, schema); err != nil {
		if errors.Is(err, dyntable.ErrAlreadyExists) {
			return false, nil
		}
		return false, translateErr("BootstrapLogic.ensureSampleSchema.Create", err)
	}
	return true, nil
}
