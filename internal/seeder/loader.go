package seeder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/careline/chatbot-backend/internal/database"
	"github.com/careline/chatbot-backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// Loader imports master-data CSV exports into the lookup tables the
// pipeline reads. Each file replaces its table wholesale; partial
// updates are not supported because the exports are full snapshots.
type Loader struct {
	db     *gorm.DB
	cache  *database.Cache
	logger *logrus.Logger
	dryRun bool
}

func NewLoader(db *gorm.DB, cache *database.Cache, logger *logrus.Logger, dryRun bool) *Loader {
	return &Loader{
		db:     db,
		cache:  cache,
		logger: logger,
		dryRun: dryRun,
	}
}

// tableFile binds a CSV file name to its row parser and table model.
type tableFile struct {
	fileName string
	model    interface{}
	parse    func(row *csvRow) (interface{}, error)
}

func (l *Loader) tableFiles() []tableFile {
	return []tableFile{
		{
			fileName: "tb_prod_mst.csv",
			model:    &models.ProductMaster{},
			parse: func(row *csvRow) (interface{}, error) {
				return &models.ProductMaster{
					ISOCode:      row.get("iso_cd"),
					LanguageCode: row.get("language_cd"),
					ProductGroup: row.get("prod_g_cd"),
					ProductCode:  row.get("prod_cd"),
					ProductName:  row.get("prod_n"),
				}, nil
			},
		},
		{
			fileName: "tb_sales_prod_map.csv",
			model:    &models.SalesProductMap{},
			parse: func(row *csvRow) (interface{}, error) {
				return &models.SalesProductMap{
					SalesModelCode:   row.get("sales_model_cd"),
					MatchedModelCode: row.get("matched_model_cd"),
					ProductModelCode: row.get("prod_model_cd"),
				}, nil
			},
		},
		{
			fileName: "tb_if_manual_list.csv",
			model:    &models.ManualListItem{},
			parse: func(row *csvRow) (interface{}, error) {
				return &models.ManualListItem{
					ProductModelCode: row.get("prod_model_cd"),
					ItemID:           row.get("item_id"),
				}, nil
			},
		},
		{
			fileName: "tb_chat_intent_mst.csv",
			model:    &models.IntentMaster{},
			parse: func(row *csvRow) (interface{}, error) {
				return &models.IntentMaster{
					IntentCode:      row.get("intent_code"),
					LocaleCode:      row.get("locale_cd"),
					EventCode:       row.get("event_cd"),
					RelatedLinkURL:  row.get("related_link_url"),
					RelatedLinkName: row.get("related_link_name"),
					ChatbotResponse: row.get("chatbot_response"),
				}, nil
			},
		},
		{
			fileName: "tb_code_mst.csv",
			model:    &models.CodeMaster{},
			parse: func(row *csvRow) (interface{}, error) {
				return &models.CodeMaster{
					GroupCode: row.get("group_cd"),
					Code:      row.get("code"),
					CodeName:  row.get("code_name"),
				}, nil
			},
		},
		{
			fileName: "tb_corp_lan_map.csv",
			model:    &models.CorpLanguageMap{},
			parse: func(row *csvRow) (interface{}, error) {
				return &models.CorpLanguageMap{
					LocaleCode:   row.get("locale_cd"),
					CorpCode:     row.get("corp_cd"),
					LanguageCode: row.get("language_cd"),
				}, nil
			},
		},
	}
}

// LoadDir imports every recognized CSV file found in dir and returns
// row counts per file. Missing files are skipped so partial exports
// can be applied.
func (l *Loader) LoadDir(ctx context.Context, dir string) (map[string]int, error) {
	counts := make(map[string]int)

	for _, tf := range l.tableFiles() {
		path := filepath.Join(dir, tf.fileName)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			l.logger.WithField("file", tf.fileName).Debug("Seed file not present, skipping")
			continue
		}

		n, err := l.loadFile(ctx, path, tf)
		if err != nil {
			return counts, fmt.Errorf("loading %s: %w", tf.fileName, err)
		}
		counts[tf.fileName] = n

		l.logger.WithFields(logrus.Fields{
			"file": tf.fileName,
			"rows": n,
		}).Info("Seed file loaded")
	}

	if len(counts) == 0 {
		return counts, fmt.Errorf("no recognized seed files in %s", dir)
	}

	if !l.dryRun {
		if err := l.cache.InvalidateMasterCache(ctx); err != nil {
			l.logger.WithError(err).Warn("Failed to invalidate master-data cache")
		}
	}

	return counts, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, tf tableFile) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows []interface{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}

		row := &csvRow{columns: columns, record: record}
		parsed, err := tf.parse(row)
		if err != nil {
			return 0, err
		}
		rows = append(rows, parsed)
	}

	if l.dryRun {
		l.logger.WithFields(logrus.Fields{
			"file": filepath.Base(path),
			"rows": len(rows),
		}).Info("Dry run, skipping write")
		return len(rows), nil
	}

	// Full snapshot replace inside one transaction
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tf.model).Error; err != nil {
			return err
		}
		batch := tx.Session(&gorm.Session{CreateBatchSize: insertBatchSize})
		for _, row := range rows {
			if err := batch.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(rows), nil
}

// csvRow exposes header-keyed access to a CSV record so the parsers
// survive column reordering in the exports.
type csvRow struct {
	columns map[string]int
	record  []string
}

func (r *csvRow) get(name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}
