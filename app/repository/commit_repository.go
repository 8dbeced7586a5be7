package repository

import (
	"github.com/recuerdame/webapp/app/models"
	"gorm.io/gorm"
)

// commitRepository implements the CommitRepository interface
type commitRepository struct {
	db *gorm.DB
}

// NewCommitRepository creates a new commit repository instance
func NewCommitRepository(db *gorm.DB) CommitRepository {
	return &commitRepository{db: db}
}

// List returns deploy-log commits newest first, filtered and paginated,
// together with the total row count for the filter.
func (r *commitRepository) List(filter CommitFilter, offset, limit int) ([]models.Commit, int64, error) {
	query := r.db.Model(&models.Commit{})

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("message LIKE ? OR author LIKE ? OR sha LIKE ?", like, like, like)
	}
	if filter.Repository != "" {
		query = query.Where("repository = ?", filter.Repository)
	}
	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var commits []models.Commit
	err := query.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&commits).Error
	return commits, total, err
}

// FilterOptions returns the distinct repositories and branches present in the
// log, for the admin filter dropdowns.
func (r *commitRepository) FilterOptions() ([]string, []string, error) {
	var repositories []string
	if err := r.db.Model(&models.Commit{}).Distinct("repository").
		Order("repository ASC").Pluck("repository", &repositories).Error; err != nil {
		return nil, nil, err
	}

	var branches []string
	if err := r.db.Model(&models.Commit{}).Distinct("branch").
		Order("branch ASC").Pluck("branch", &branches).Error; err != nil {
		return nil, nil, err
	}
	return repositories, branches, nil
}
