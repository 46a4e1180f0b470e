package models

// GORM models for master data and analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ProductMaster maps product group/code pairs per country and language.
type ProductMaster struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	ISOCode      string `json:"iso_cd" gorm:"column:iso_cd;not null;index"`
	LanguageCode string `json:"language_cd" gorm:"column:language_cd;not null"`
	ProductGroup string `json:"prod_g_cd" gorm:"column:prod_g_cd;not null"`
	ProductCode  string `json:"prod_cd" gorm:"column:prod_cd;not null"`
	ProductName  string `json:"prod_n" gorm:"column:prod_n"`
}

// SalesProductMap resolves a sales model code to matched/product model codes.
type SalesProductMap struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	SalesModelCode   string `json:"sales_model_cd" gorm:"column:sales_model_cd;not null;index"`
	MatchedModelCode string `json:"matched_model_cd" gorm:"column:matched_model_cd"`
	ProductModelCode string `json:"prod_model_cd" gorm:"column:prod_model_cd"`
}

// ManualListItem links a product model code to its manual item id.
type ManualListItem struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	ProductModelCode string `json:"prod_model_cd" gorm:"column:prod_model_cd;not null;index"`
	ItemID           string `json:"item_id" gorm:"column:item_id;not null"`
}

// IntentMaster holds canned responses for general-inquiry intents.
type IntentMaster struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	IntentCode      string `json:"intent_code" gorm:"column:intent_code;not null;index"`
	LocaleCode      string `json:"locale_cd" gorm:"column:locale_cd;not null"`
	EventCode       string `json:"event_cd" gorm:"column:event_cd"`
	RelatedLinkURL  string `json:"related_link_url" gorm:"column:related_link_url"`
	RelatedLinkName string `json:"related_link_name" gorm:"column:related_link_name"`
	ChatbotResponse string `json:"chatbot_response" gorm:"column:chatbot_response"`
}

// CodeMaster holds code lookups grouped by code group.
// Group B00003 carries locale codes, B00006 carries language codes.
type CodeMaster struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	GroupCode string `json:"group_cd" gorm:"column:group_cd;not null;index"`
	Code      string `json:"code" gorm:"column:code;not null"`
	CodeName  string `json:"code_name" gorm:"column:code_name"`
}

// CorpLanguageMap maps a locale to its corp code and default language.
type CorpLanguageMap struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	LocaleCode   string `json:"locale_cd" gorm:"column:locale_cd;not null;index"`
	CorpCode     string `json:"corp_cd" gorm:"column:corp_cd"`
	LanguageCode string `json:"language_cd" gorm:"column:language_cd"`
}

// ChatSummary is the flattened analytics row written once per chat turn.
type ChatSummary struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ChatID           string    `json:"chat_id" gorm:"column:chat_id;not null;index"`
	SessionID        string    `json:"session_id" gorm:"column:session_id;not null"`
	RAGOrder         int       `json:"rag_order" gorm:"column:rag_order"`
	ISOCode          string    `json:"iso_cd" gorm:"column:iso_cd"`
	LanguageCode     string    `json:"language_cd" gorm:"column:language_cd"`
	ProductGroup     string    `json:"prod_g_cd" gorm:"column:prod_g_cd"`
	ProductCode      string    `json:"prod_cd" gorm:"column:prod_cd"`
	ProductModelCode string    `json:"prod_model_cd" gorm:"column:prod_model_cd"`
	Platform         string    `json:"platform" gorm:"column:platform"`
	Question         string    `json:"question" gorm:"column:question"`
	Answer           string    `json:"answer" gorm:"column:answer"`
	Flag             string    `json:"flag" gorm:"column:flag"`
	Intent           string    `json:"intent" gorm:"column:intent"`
	PromptTokens     int       `json:"prompt_tokens" gorm:"column:prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" gorm:"column:completion_tokens"`
	ElapsedMs        int       `json:"elapsed_ms" gorm:"column:elapsed_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

// Database interfaces for repository pattern
type ProductMasterRepository interface {
	GetByGroup(iso, language, group string) ([]ProductMaster, error)
	GetByGroupAndCode(iso, language, group, code string) ([]ProductMaster, error)
	GetNamesByGroup(iso, group string) ([]string, error)
	GroupCodeForProduct(code string) (string, error)
}

type SalesProductMapRepository interface {
	MatchedModelCodes(salesCodes []string, limit int) ([]string, error)
	ProductModelCodes(salesCodes []string, limit int) ([]string, error)
}

type ManualListRepository interface {
	ItemIDs(productModelCodes []string, limit int) ([]string, error)
}

type IntentMasterRepository interface {
	GetByCodeAndLocale(intentCode, locale string) (*IntentMaster, error)
}

type CodeMasterRepository interface {
	GetName(groupCode, code string) (string, error)
}

type CorpLanguageMapRepository interface {
	GetByLocale(locale string) (*CorpLanguageMap, error)
}

type ChatSummaryRepository interface {
	Create(summary *ChatSummary) error
	GetBySession(sessionID string) ([]ChatSummary, error)
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetServiceHealth(serviceName string) (*SystemHealth, error)
	GetAllServicesHealth() ([]SystemHealth, error)
}

// TableName methods for custom table names
func (ProductMaster) TableName() string   { return "tb_prod_mst" }
func (SalesProductMap) TableName() string { return "tb_sales_prod_map" }
func (ManualListItem) TableName() string  { return "tb_if_manual_list" }
func (IntentMaster) TableName() string    { return "tb_chat_intent_mst" }
func (CodeMaster) TableName() string      { return "tb_code_mst" }
func (CorpLanguageMap) TableName() string { return "tb_corp_lan_map" }
func (ChatSummary) TableName() string     { return "tmp_chat_summary_dash" }
func (SystemHealth) TableName() string    { return "system_health" }

// Model validation methods
func (cs *ChatSummary) Validate() error {
	if cs.ChatID == "" {
		return fmt.Errorf("chat id is required")
	}
	if cs.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}

// GORM hooks
func (cs *ChatSummary) BeforeCreate(tx *gorm.DB) error {
	return cs.Validate()
}
