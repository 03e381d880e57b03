package resource

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/harborwell/shipstock/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogItem is one supply item in the catalog file.
type CatalogItem struct {
	Name   string `json:"name"`
	Unit   string `json:"unit"`
	Remark string `json:"remark"`
}

// CatalogCategory groups catalog items.
type CatalogCategory struct {
	Name   string        `json:"name"`
	Remark string        `json:"remark"`
	Items  []CatalogItem `json:"items"`
}

// Loader reads the supply catalog JSON used to pre-fill master data on a
// fresh installation.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the given catalog file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load parses the catalog file.
func (l *Loader) Load() ([]CatalogCategory, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("resource: read catalog: %w", err)
	}
	var cats []CatalogCategory
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, fmt.Errorf("resource: parse catalog: %w", err)
	}
	for _, cat := range cats {
		if cat.Name == "" {
			return nil, fmt.Errorf("resource: catalog category without name")
		}
		for _, it := range cat.Items {
			if it.Name == "" {
				return nil, fmt.Errorf("resource: catalog item without name in %q", cat.Name)
			}
		}
	}
	return cats, nil
}

// Seed inserts catalog categories and items that do not exist yet. Existing
// rows are left untouched, so re-seeding on every boot is safe.
func Seed(db *gorm.DB, cats []CatalogCategory, logger *zap.Logger) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, cat := range cats {
			row := model.Category{Name: cat.Name, Remark: cat.Remark}
			res := tx.Where("name = ?", cat.Name).FirstOrCreate(&row)
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)

			for _, it := range cat.Items {
				itemRow := model.Item{
					Name:       it.Name,
					CategoryID: row.ID,
					Unit:       it.Unit,
					Remark:     it.Remark,
				}
				res := tx.Where("name = ? AND category_id = ?", it.Name, row.ID).FirstOrCreate(&itemRow)
				if res.Error != nil {
					return res.Error
				}
				created += int(res.RowsAffected)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		logger.Info("catalog seeded", zap.Int("rows", created))
	}
	return created, nil
}
