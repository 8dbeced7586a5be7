package repository

import (
	"encoding/json"
	"log"
	"time"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/internal/pkg/cache"
	"gorm.io/gorm"
)

const (
	activePlansCacheKey = "plans:active"
	activePlansCacheTTL = 5 * time.Minute
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan in the database
func (r *planRepository) Create(plan *models.Plan) error {
	defer r.invalidateCache()
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByCode retrieves a plan by its unique code
func (r *planRepository) GetByCode(code string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("code = ?", code).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActive retrieves the publicly offered plans. The list changes rarely and
// is read on every pricing view, so it is cached in Redis for a few minutes.
func (r *planRepository) GetActive() ([]models.Plan, error) {
	if cached, err := cache.Get(activePlansCacheKey); err == nil && cached != "" {
		var plans []models.Plan
		if err := json.Unmarshal([]byte(cached), &plans); err == nil {
			return plans, nil
		}
	}

	var plans []models.Plan
	if err := r.db.Where("is_active = ?", true).Order("sort_order ASC").Find(&plans).Error; err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(plans); err == nil {
		if err := cache.Set(activePlansCacheKey, string(payload), activePlansCacheTTL); err != nil {
			log.Printf("[PlanRepository] caching active plans failed: %v", err)
		}
	}
	return plans, nil
}

// GetAll retrieves every plan including inactive ones
func (r *planRepository) GetAll() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Order("sort_order ASC").Find(&plans).Error
	return plans, err
}

// Update updates an existing plan in the database
func (r *planRepository) Update(plan *models.Plan) error {
	defer r.invalidateCache()
	return r.db.Save(plan).Error
}

// Delete deletes a plan by its ID
func (r *planRepository) Delete(id uint) error {
	defer r.invalidateCache()
	return r.db.Delete(&models.Plan{}, id).Error
}

func (r *planRepository) invalidateCache() {
	if err := cache.Delete(activePlansCacheKey); err != nil {
		log.Printf("[PlanRepository] invalidating plan cache failed: %v", err)
	}
}
