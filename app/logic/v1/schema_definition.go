package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/app/core/srv"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/types"
)

const (
	// versionRetries bounds create_new_version when concurrent callers take the same number.
	versionRetries = 3

	exportURLExpires = time.Hour
)

type SchemaDefinitionLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewSchemaDefinitionLogic(ctx context.Context, core *core.Core) *SchemaDefinitionLogic {
	return &SchemaDefinitionLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type SchemaDefinitionRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Structure   types.Relationships `json:"structure"`
}

// validateStructure requires a non empty relationship list of known types.
func validateStructure(structure types.Relationships) error {
	if len(structure) == 0 {
		return fmt.Errorf("%w: structure is required", dyntable.ErrValidation)
	}
	for i, rel := range structure {
		if strings.TrimSpace(rel.Parent) == "" || strings.TrimSpace(rel.Child) == "" {
			return fmt.Errorf("%w: relationship %d needs a parent and a child", dyntable.ErrValidation, i)
		}
		if !types.ValidRelationshipType(rel.Type) {
			return fmt.Errorf("%w: relationship %d has unknown type %q", dyntable.ErrValidation, i, rel.Type)
		}
	}
	return nil
}

func ownsSchema(schema *types.SchemaDefinition) func(*srv.RBACSrv, *types.User) bool {
	return func(_ *srv.RBACSrv, user *types.User) bool {
		return user.IsAdmin || schema.OwnerID == user.ID
	}
}

func (l *SchemaDefinitionLogic) Create(req SchemaDefinitionRequest) (*types.SchemaDefinition, error) {
	user, err := l.Identification("SchemaDefinitionLogic.Create", canCreateTables)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, invalidArgument("SchemaDefinitionLogic.Create", fmt.Errorf("%w: name is required", dyntable.ErrValidation))
	}
	if err = validateStructure(req.Structure); err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Create.validateStructure", err)
	}

	return l.insert(types.SchemaDefinition{
		Name:        req.Name,
		Description: req.Description,
		Structure:   req.Structure,
		OwnerID:     user.ID,
		Version:     1,
	})
}

func (l *SchemaDefinitionLogic) insert(schema types.SchemaDefinition) (*types.SchemaDefinition, error) {
	now := time.Now().Unix()
	schema.CreatedAt, schema.UpdatedAt = now, now
	id, err := l.core.Store().SchemaDefinitionStore().Create(l.ctx, schema)
	if err != nil {
		return nil, translateErr("SchemaDefinitionLogic.insert.SchemaDefinitionStore.Create", err)
	}
	schema.ID = id
	return &schema, nil
}

func (l *SchemaDefinitionLogic) Get(id int64) (*types.SchemaDefinition, error) {
	if _, err := l.CurrentUser(); err != nil {
		return nil, err
	}
	schema, err := l.core.Store().SchemaDefinitionStore().Get(l.ctx, id)
	if err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Get.SchemaDefinitionStore.Get", err)
	}
	return schema, nil
}

func (l *SchemaDefinitionLogic) List(opts types.ListSchemaDefinitionOptions, page, pageSize uint64) ([]types.SchemaDefinition, int64, error) {
	if _, err := l.CurrentUser(); err != nil {
		return nil, 0, err
	}
	list, err := l.core.Store().SchemaDefinitionStore().List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, translateErr("SchemaDefinitionLogic.List.SchemaDefinitionStore.List", err)
	}
	total, err := l.core.Store().SchemaDefinitionStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, translateErr("SchemaDefinitionLogic.List.SchemaDefinitionStore.Total", err)
	}
	return list, total, nil
}

// Versions returns every version of name, newest first.
func (l *SchemaDefinitionLogic) Versions(name string) ([]types.SchemaDefinition, error) {
	if _, err := l.CurrentUser(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("SchemaDefinitionLogic.Versions", fmt.Errorf("%w: name is required", dyntable.ErrValidation))
	}
	list, err := l.core.Store().SchemaDefinitionStore().ListVersions(l.ctx, name)
	if err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Versions.SchemaDefinitionStore.ListVersions", err)
	}
	return list, nil
}

func (l *SchemaDefinitionLogic) Update(id int64, req SchemaDefinitionRequest) (*types.SchemaDefinition, error) {
	schema, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err = l.Identification("SchemaDefinitionLogic.Update", ownsSchema(schema)); err != nil {
		return nil, err
	}
	if err = validateStructure(req.Structure); err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Update.validateStructure", err)
	}

	if err = l.core.Store().SchemaDefinitionStore().Update(l.ctx, id, req.Description, req.Structure); err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Update.SchemaDefinitionStore.Update", err)
	}
	return l.Get(id)
}

// Delete removes one version, versions derived from it keep a NULL parent.
func (l *SchemaDefinitionLogic) Delete(id int64) error {
	schema, err := l.Get(id)
	if err != nil {
		return err
	}
	if _, err = l.Identification("SchemaDefinitionLogic.Delete", ownsSchema(schema)); err != nil {
		return err
	}
	if err = l.core.Store().SchemaDefinitionStore().Delete(l.ctx, id); err != nil {
		return translateErr("SchemaDefinitionLogic.Delete.SchemaDefinitionStore.Delete", err)
	}
	return nil
}

// CreateNewVersion copies the record id as max(version)+1 of its name, pointing back at id.
func (l *SchemaDefinitionLogic) CreateNewVersion(id int64) (*types.SchemaDefinition, error) {
	base, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	user, err := l.Identification("SchemaDefinitionLogic.CreateNewVersion", func(rbac *srv.RBACSrv, user *types.User) bool {
		return ownsSchema(base)(rbac, user) || rbac.CanCreateTables(user)
	})
	if err != nil {
		return nil, err
	}

	return l.nextVersion(types.SchemaDefinition{
		Name:        base.Name,
		Description: base.Description,
		Structure:   base.Structure,
		OwnerID:     user.ID,
	}, &base.ID)
}

// nextVersion stores schema as the next version of its name. A unique conflict means a
// concurrent caller took the number, so the max is read again.
func (l *SchemaDefinitionLogic) nextVersion(schema types.SchemaDefinition, parentID *int64) (*types.SchemaDefinition, error) {
	store := l.core.Store().SchemaDefinitionStore()
	var lastErr error
	for attempt := 0; attempt < versionRetries; attempt++ {
		current, err := store.MaxVersion(l.ctx, schema.Name)
		if err != nil {
			return nil, translateErr("SchemaDefinitionLogic.nextVersion.MaxVersion", err)
		}
		schema.Version = current + 1
		schema.ParentID = parentID
		if parentID == nil && current > 0 {
			latest, err := store.ListVersions(l.ctx, schema.Name)
			if err != nil {
				return nil, translateErr("SchemaDefinitionLogic.nextVersion.ListVersions", err)
			}
			schema.ParentID = &latest[0].ID
		}

		res, err := l.insert(schema)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, dyntable.ErrAlreadyExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, errors.Trace("SchemaDefinitionLogic.nextVersion", lastErr)
}

func (l *SchemaDefinitionLogic) Visualize(id int64) (*types.Visualization, error) {
	schema, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	v := schema.Structure.Visualize()
	return &v, nil
}

type ExportResult struct {
	Bundle types.SchemaExport `json:"bundle"`
	Key    string             `json:"key,omitempty"`
	URL    string             `json:"url,omitempty"`
}

// viewableTables keeps the catalog records the user may view.
func viewableTables(rbac *srv.RBACSrv, user *types.User, tables []types.DynamicTable) []types.DynamicTable {
	out := make([]types.DynamicTable, 0, len(tables))
	for _, t := range tables {
		if rbac.CanView(user, t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// Export bundles the schema with the catalog records of the tables it names and the
// caller may view. With toStorage the bundle is also uploaded to object storage.
func (l *SchemaDefinitionLogic) Export(id int64, toStorage bool) (*ExportResult, error) {
	schema, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	user, err := l.CurrentUser()
	if err != nil {
		return nil, err
	}

	tables, err := l.core.Store().DynamicTableStore().List(l.ctx, types.ListDynamicTableOptions{
		Names: schema.Structure.Tables(),
	})
	if err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Export.DynamicTableStore.List", err)
	}
	res := &ExportResult{
		Bundle: types.SchemaExport{Schema: *schema, Tables: viewableTables(l.core.Srv().RBAC(), user, tables)},
	}
	if !toStorage {
		return res, nil
	}

	storage := l.core.ObjectStorage()
	if storage == nil {
		return nil, errors.New("SchemaDefinitionLogic.Export", i18n.ERROR_OBJECT_STORAGE_DISABLED, nil).Code(http.StatusBadRequest)
	}
	raw, err := json.Marshal(res.Bundle)
	if err != nil {
		return nil, errors.New("SchemaDefinitionLogic.Export.json.Marshal", i18n.ERROR_INTERNAL, err)
	}
	res.Key = exportKey(l.core.Cfg().ObjectStorage.Prefix, schema, time.Now())
	if err = storage.Upload(l.ctx, res.Key, "application/json", raw); err != nil {
		return nil, errors.New("SchemaDefinitionLogic.Export.Upload", i18n.ERROR_INTERNAL, err)
	}
	if res.URL, err = storage.GenGetObjectPreSignURL(l.ctx, res.Key, exportURLExpires); err != nil {
		return nil, errors.New("SchemaDefinitionLogic.Export.GenGetObjectPreSignURL", i18n.ERROR_INTERNAL, err)
	}
	return res, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func exportKey(prefix string, schema *types.SchemaDefinition, now time.Time) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(schema.Name), "-"), "-")
	if slug == "" {
		slug = "schema"
	}
	return path.Join(prefix, "schemas", fmt.Sprintf("%s-v%d-%d.json", slug, schema.Version, now.Unix()))
}

type ImportRequest struct {
	Bundle types.SchemaExport `json:"bundle"`
	// Key loads the bundle from object storage instead.
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Schema        *types.SchemaDefinition `json:"schema"`
	CreatedTables []string                `json:"created_tables"`
}

// Import defines the missing tables of a bundle, then stores its schema as version 1 or as
// the next version of an existing name.
func (l *SchemaDefinitionLogic) Import(req ImportRequest) (*ImportResult, error) {
	user, err := l.Identification("SchemaDefinitionLogic.Import", canCreateTables)
	if err != nil {
		return nil, err
	}
	if err = requireReason("SchemaDefinitionLogic.Import", req.Reason); err != nil {
		return nil, err
	}

	bundle := req.Bundle
	if req.Key != "" {
		if bundle, err = l.loadBundle(req.Key); err != nil {
			return nil, err
		}
	}

	schema := bundle.Schema
	schema.Name = strings.TrimSpace(schema.Name)
	if schema.Name == "" {
		return nil, invalidArgument("SchemaDefinitionLogic.Import", fmt.Errorf("%w: schema name is required", dyntable.ErrValidation))
	}
	if err = validateStructure(schema.Structure); err != nil {
		return nil, translateErr("SchemaDefinitionLogic.Import.validateStructure", err)
	}
	for _, t := range bundle.Tables {
		if err = dyntable.ValidateTableName(t.Name); err != nil {
			return nil, translateErr("SchemaDefinitionLogic.Import.ValidateTableName", err)
		}
		if err = dyntable.ValidateColumns(t.Columns, nil); err != nil {
			return nil, translateErr("SchemaDefinitionLogic.Import.ValidateColumns", err)
		}
	}

	res := &ImportResult{CreatedTables: []string{}}
	for _, t := range bundle.Tables {
		_, _, created, err := defineTable(l.ctx, l.core, types.DynamicTable{
			Name:        t.Name,
			Columns:     t.Columns,
			OwnerID:     user.ID,
			Independent: t.Independent,
		}, user.ID, req.Reason)
		if err != nil {
			return nil, translateErr("SchemaDefinitionLogic.Import.defineTable", err)
		}
		if created {
			res.CreatedTables = append(res.CreatedTables, t.Name)
		}
	}

	res.Schema, err = l.nextVersion(types.SchemaDefinition{
		Name:        schema.Name,
		Description: schema.Description,
		Structure:   schema.Structure,
		OwnerID:     user.ID,
	}, nil)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (l *SchemaDefinitionLogic) loadBundle(key string) (types.SchemaExport, error) {
	var bundle types.SchemaExport
	storage := l.core.ObjectStorage()
	if storage == nil {
		return bundle, errors.New("SchemaDefinitionLogic.loadBundle", i18n.ERROR_OBJECT_STORAGE_DISABLED, nil).Code(http.StatusBadRequest)
	}
	raw, err := storage.GetObject(l.ctx, key)
	if err != nil {
		return bundle, errors.New("SchemaDefinitionLogic.loadBundle.GetObject", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
	}
	if err = json.Unmarshal(raw, &bundle); err != nil {
		return bundle, invalidArgument("SchemaDefinitionLogic.loadBundle.json.Unmarshal", fmt.Errorf("%w: %w", dyntable.ErrValidation, err))
	}
	return bundle, nil
}

