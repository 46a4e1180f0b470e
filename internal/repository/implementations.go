package repository

import (
	"gorm.io/gorm"

	"github.com/careline/chatbot-backend/internal/models"
)

// ProductMasterRepositoryImpl implements ProductMasterRepository
type ProductMasterRepositoryImpl struct {
	db *gorm.DB
}

func NewProductMasterRepository(db *gorm.DB) models.ProductMasterRepository {
	return &ProductMasterRepositoryImpl{db: db}
}

func (r *ProductMasterRepositoryImpl) GetByGroup(iso, language, group string) ([]models.ProductMaster, error) {
	var products []models.ProductMaster
	err := r.db.Where("iso_cd = ? AND language_cd = ? AND prod_g_cd = ?", iso, language, group).
		Find(&products).Error
	return products, err
}

func (r *ProductMasterRepositoryImpl) GetByGroupAndCode(iso, language, group, code string) ([]models.ProductMaster, error) {
	var products []models.ProductMaster
	err := r.db.Where("iso_cd = ? AND language_cd = ? AND prod_g_cd = ? AND prod_cd = ?",
		iso, language, group, code).
		Find(&products).Error
	return products, err
}

func (r *ProductMasterRepositoryImpl) GroupCodeForProduct(code string) (string, error) {
	var row models.ProductMaster
	err := r.db.Where("prod_cd = ?", code).First(&row).Error
	if err != nil {
		return "", err
	}
	return row.ProductGroup, nil
}

func (r *ProductMasterRepositoryImpl) GetNamesByGroup(iso, group string) ([]string, error) {
	var names []string
	err := r.db.Model(&models.ProductMaster{}).
		Distinct("prod_n").
		Where("iso_cd = ? AND prod_g_cd = ?", iso, group).
		Pluck("prod_n", &names).Error
	return names, err
}

// SalesProductMapRepositoryImpl implements SalesProductMapRepository
type SalesProductMapRepositoryImpl struct {
	db *gorm.DB
}

func NewSalesProductMapRepository(db *gorm.DB) models.SalesProductMapRepository {
	return &SalesProductMapRepositoryImpl{db: db}
}

func (r *SalesProductMapRepositoryImpl) MatchedModelCodes(salesCodes []string, limit int) ([]string, error) {
	if len(salesCodes) == 0 {
		return nil, nil
	}
	var codes []string
	err := r.db.Model(&models.SalesProductMap{}).
		Distinct("matched_model_cd").
		Where("sales_model_cd IN ? AND matched_model_cd <> ''", salesCodes).
		Limit(limit).
		Pluck("matched_model_cd", &codes).Error
	return codes, err
}

func (r *SalesProductMapRepositoryImpl) ProductModelCodes(salesCodes []string, limit int) ([]string, error) {
	if len(salesCodes) == 0 {
		return nil, nil
	}
	var codes []string
	err := r.db.Model(&models.SalesProductMap{}).
		Distinct("prod_model_cd").
		Where("sales_model_cd IN ? AND prod_model_cd <> ''", salesCodes).
		Limit(limit).
		Pluck("prod_model_cd", &codes).Error
	return codes, err
}

// ManualListRepositoryImpl implements ManualListRepository
type ManualListRepositoryImpl struct {
	db *gorm.DB
}

func NewManualListRepository(db *gorm.DB) models.ManualListRepository {
	return &ManualListRepositoryImpl{db: db}
}

func (r *ManualListRepositoryImpl) ItemIDs(productModelCodes []string, limit int) ([]string, error) {
	if len(productModelCodes) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.Model(&models.ManualListItem{}).
		Distinct("item_id").
		Where("prod_model_cd IN ?", productModelCodes).
		Limit(limit).
		Pluck("item_id", &ids).Error
	return ids, err
}

// IntentMasterRepositoryImpl implements IntentMasterRepository
type IntentMasterRepositoryImpl struct {
	db *gorm.DB
}

func NewIntentMasterRepository(db *gorm.DB) models.IntentMasterRepository {
	return &IntentMasterRepositoryImpl{db: db}
}

func (r *IntentMasterRepositoryImpl) GetByCodeAndLocale(intentCode, locale string) (*models.IntentMaster, error) {
	var intent models.IntentMaster
	err := r.db.Where("intent_code = ? AND locale_cd = ?", intentCode, locale).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// CodeMasterRepositoryImpl implements CodeMasterRepository
type CodeMasterRepositoryImpl struct {
	db *gorm.DB
}

func NewCodeMasterRepository(db *gorm.DB) models.CodeMasterRepository {
	return &CodeMasterRepositoryImpl{db: db}
}

func (r *CodeMasterRepositoryImpl) GetName(groupCode, code string) (string, error) {
	var row models.CodeMaster
	err := r.db.Where("group_cd = ? AND code = ?", groupCode, code).
		First(&row).Error
	if err != nil {
		return "", err
	}
	return row.CodeName, nil
}

// CorpLanguageMapRepositoryImpl implements CorpLanguageMapRepository
type CorpLanguageMapRepositoryImpl struct {
	db *gorm.DB
}

func NewCorpLanguageMapRepository(db *gorm.DB) models.CorpLanguageMapRepository {
	return &CorpLanguageMapRepositoryImpl{db: db}
}

func (r *CorpLanguageMapRepositoryImpl) GetByLocale(locale string) (*models.CorpLanguageMap, error) {
	var row models.CorpLanguageMap
	err := r.db.Where("locale_cd = ?", locale).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ChatSummaryRepositoryImpl implements ChatSummaryRepository
type ChatSummaryRepositoryImpl struct {
	db *gorm.DB
}

func NewChatSummaryRepository(db *gorm.DB) models.ChatSummaryRepository {
	return &ChatSummaryRepositoryImpl{db: db}
}

func (r *ChatSummaryRepositoryImpl) Create(summary *models.ChatSummary) error {
	return r.db.Create(summary).Error
}

func (r *ChatSummaryRepositoryImpl) GetBySession(sessionID string) ([]models.ChatSummary, error) {
	var summaries []models.ChatSummary
	err := r.db.Where("session_id = ?", sessionID).
		Order("rag_order").
		Find(&summaries).Error
	return summaries, err
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Exec(`
		INSERT INTO system_health (service_name, status, response_time_ms, error_message, checked_at)
		VALUES (?, ?, ?, ?, NOW())
	`, serviceName, status, responseTime, errorMsg).Error
}

func (r *SystemHealthRepositoryImpl) GetServiceHealth(serviceName string) (*models.SystemHealth, error) {
	var health models.SystemHealth
	err := r.db.Where("service_name = ?", serviceName).
		Order("checked_at DESC").
		First(&health).Error
	if err != nil {
		return nil, err
	}
	return &health, nil
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	ProductMaster models.ProductMasterRepository
	SalesModelMap models.SalesProductMapRepository
	ManualList    models.ManualListRepository
	IntentMaster  models.IntentMasterRepository
	CodeMaster    models.CodeMasterRepository
	CorpLanguage  models.CorpLanguageMapRepository
	ChatSummary   models.ChatSummaryRepository
	SystemHealth  models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		ProductMaster: NewProductMasterRepository(db),
		SalesModelMap: NewSalesProductMapRepository(db),
		ManualList:    NewManualListRepository(db),
		IntentMaster:  NewIntentMasterRepository(db),
		CodeMaster:    NewCodeMasterRepository(db),
		CorpLanguage:  NewCorpLanguageMapRepository(db),
		ChatSummary:   NewChatSummaryRepository(db),
		SystemHealth:  NewSystemHealthRepository(db),
	}
}
