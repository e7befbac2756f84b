package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CardSpec is a declarative card + buttons definition loadable from a registry
// directory, so deployments can ship a default content set.
type CardSpec struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Buttons     []struct {
		ID              string `json:"id" yaml:"id"`
		Label           string `json:"label" yaml:"label"`
		APIURL          string `json:"api_url" yaml:"api_url"`
		APIMethod       string `json:"api_method" yaml:"api_method"`
		APIBodyTemplate string `json:"api_body_template" yaml:"api_body_template"`
		Queries         []struct {
			Key   string `json:"key" yaml:"key"`
			Value string `json:"value" yaml:"value"`
		} `json:"queries" yaml:"queries"`
	} `json:"buttons" yaml:"buttons"`
}

func loadRegistry(dir string) ([]CardSpec, error) {
	if dir == "" {
		return nil, nil
	}
	out := []CardSpec{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}

		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var spec CardSpec
		if ext == ".json" {
			if err := json.Unmarshal(b, &spec); err != nil {
				return err
			}
		} else {
			if err := yaml.Unmarshal(b, &spec); err != nil {
				return fmt.Errorf("yaml parse: %w", err)
			}
		}
		if spec.ID != "" {
			out = append(out, spec)
		}
		return nil
	})
	return out, err
}

// importCardsFromDir loads card specs from a directory and upserts them.
func importCardsFromDir(ctx context.Context, db *pgxpool.Pool, log *zap.SugaredLogger, dir string) error {
	specs, err := loadRegistry(dir)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}
	for _, s := range specs {
		if _, err := db.Exec(ctx, `
			INSERT INTO cards (id, title, description)
			VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET
			  title=EXCLUDED.title,
			  description=EXCLUDED.description,
			  updated_at=NOW()
		`, s.ID, s.Title, nullIfEmpty(s.Description)); err != nil {
			return err
		}
		for _, btn := range s.Buttons {
			if btn.ID == "" || btn.APIURL == "" {
				continue
			}
			method := btn.APIMethod
			if method == "" {
				method = "GET"
			}
			if _, err := db.Exec(ctx, `
				INSERT INTO buttons (id, card_id, label, api_url, api_method, api_body_template)
				VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (id) DO UPDATE SET
				  card_id=EXCLUDED.card_id,
				  label=EXCLUDED.label,
				  api_url=EXCLUDED.api_url,
				  api_method=EXCLUDED.api_method,
				  api_body_template=EXCLUDED.api_body_template,
				  updated_at=NOW()
			`, btn.ID, s.ID, nullIfEmpty(btn.Label), btn.APIURL, method, nullIfEmpty(btn.APIBodyTemplate)); err != nil {
				return err
			}
			if _, err := db.Exec(ctx, `DELETE FROM query_params WHERE button_id=$1`, btn.ID); err != nil {
				return err
			}
			for i, q := range btn.Queries {
				if q.Key == "" {
					continue
				}
				if _, err := db.Exec(ctx, `INSERT INTO query_params(id,button_id,key,value,position) VALUES ($1,$2,$3,$4,$5)`,
					uuidNew(), btn.ID, q.Key, q.Value, i); err != nil {
					return err
				}
			}
		}
	}
	log.Infof("imported %d cards from %s", len(specs), dir)
	return nil
}
