package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/project-management/internal"
	projectDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/project"
	"github.com/frahmantamala/project-management/internal/project"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	var p projectDatamodel.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrProjectNotFound
		}
		return nil, internal.NewStorageUnavailableError(err)
	}
	return project.FromDataModel(&p), nil
}

func (r *ProjectRepository) HasAccess(ctx context.Context, projectID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&projectDatamodel.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Where("access IN ?", []string{
			string(project.AccessMember),
			string(project.AccessCommenter),
			string(project.AccessViewer),
		}).
		Count(&count).Error
	if err != nil {
		return false, internal.NewStorageUnavailableError(err)
	}
	return count > 0, nil
}
