package db

import (
	"context"
	"database/sql"
)

// ─── READS ────────────────────────────────────────────────────────────────────

const listTaxonomyClasses = `-- name: ListTaxonomyClasses :many
SELECT tree, id, label, description
FROM taxonomy_classes
ORDER BY tree, id
`

func (q *Queries) ListTaxonomyClasses(ctx context.Context) ([]TaxonomyClass, error) {
	rows, err := q.query(ctx, q.listTaxonomyClassesStmt, listTaxonomyClasses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TaxonomyClass
	for rows.Next() {
		var i TaxonomyClass
		if err := rows.Scan(&i.Tree, &i.ID, &i.Label, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTaxonomySubclasses = `-- name: ListTaxonomySubclasses :many
SELECT tree, id, parent_class_id, label, description
FROM taxonomy_subclasses
ORDER BY tree, id
`

func (q *Queries) ListTaxonomySubclasses(ctx context.Context) ([]TaxonomySubclass, error) {
	rows, err := q.query(ctx, q.listTaxonomySubclassesStmt, listTaxonomySubclasses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TaxonomySubclass
	for rows.Next() {
		var i TaxonomySubclass
		if err := rows.Scan(&i.Tree, &i.ID, &i.ParentClassID, &i.Label, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listItemHazardRules = `-- name: ListItemHazardRules :many
SELECT id, domain, item, score_min, score_max, hazard_subclass_id, hazard_class_id
FROM item_hazard_rules
ORDER BY id
`

func (q *Queries) ListItemHazardRules(ctx context.Context) ([]ItemHazardRule, error) {
	rows, err := q.query(ctx, q.listItemHazardRulesStmt, listItemHazardRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ItemHazardRule
	for rows.Next() {
		var i ItemHazardRule
		if err := rows.Scan(
			&i.ID,
			&i.Domain,
			&i.Item,
			&i.ScoreMin,
			&i.ScoreMax,
			&i.HazardSubclassID,
			&i.HazardClassID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCodeHazardRules = `-- name: ListCodeHazardRules :many
SELECT id, domain, code, hazard_subclass_id, hazard_class_id
FROM code_hazard_rules
ORDER BY id
`

func (q *Queries) ListCodeHazardRules(ctx context.Context) ([]CodeHazardRule, error) {
	rows, err := q.query(ctx, q.listCodeHazardRulesStmt, listCodeHazardRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CodeHazardRule
	for rows.Next() {
		var i CodeHazardRule
		if err := rows.Scan(
			&i.ID,
			&i.Domain,
			&i.Code,
			&i.HazardSubclassID,
			&i.HazardClassID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCodeUsage = `-- name: ListCodeUsage :many
SELECT r.code,
       COALESCE(r.hazard_subclass_id, r.hazard_class_id, '') AS hazard_code,
       COALESCE(s.label, c.label, '') AS hazard_label,
       COUNT(u.code) AS frequency
FROM code_hazard_rules r
LEFT JOIN taxonomy_subclasses s ON s.tree = 'hazard' AND s.id = r.hazard_subclass_id
LEFT JOIN taxonomy_classes c ON c.tree = 'hazard' AND c.id = r.hazard_class_id
LEFT JOIN (
    SELECT unnest(CASE $1::text
                      WHEN 'dx' THEN dx_codes
                      WHEN 'sx' THEN sx_codes
                      ELSE rx_codes
                  END) AS code
    FROM patient_history
) u ON u.code = r.code
WHERE r.domain = $1::text
GROUP BY r.code, r.hazard_subclass_id, r.hazard_class_id, s.label, c.label
ORDER BY frequency DESC, r.code
LIMIT $2
`

type ListCodeUsageParams struct {
	Domain string
	Limit  int32
}

type ListCodeUsageRow struct {
	Code        string
	HazardCode  string
	HazardLabel string
	Frequency   int64
}

// ListCodeUsage lists the catalog codes of one domain, most used in patient
// histories first.
func (q *Queries) ListCodeUsage(ctx context.Context, arg ListCodeUsageParams) ([]ListCodeUsageRow, error) {
	rows, err := q.query(ctx, q.listCodeUsageStmt, listCodeUsage, arg.Domain, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCodeUsageRow
	for rows.Next() {
		var i ListCodeUsageRow
		if err := rows.Scan(
			&i.Code,
			&i.HazardCode,
			&i.HazardLabel,
			&i.Frequency,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listServiceMap = `-- name: ListServiceMap :many
SELECT id, tree, hazard_subclass_id, service_subclass_id, service_class_id
FROM service_map
ORDER BY id
`

func (q *Queries) ListServiceMap(ctx context.Context) ([]ServiceMap, error) {
	rows, err := q.query(ctx, q.listServiceMapStmt, listServiceMap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ServiceMap
	for rows.Next() {
		var i ServiceMap
		if err := rows.Scan(
			&i.ID,
			&i.Tree,
			&i.HazardSubclassID,
			&i.ServiceSubclassID,
			&i.ServiceClassID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listParentServiceMap = `-- name: ListParentServiceMap :many
SELECT id, tree, hazard_class_id, service_class_id
FROM parent_service_map
ORDER BY id
`

func (q *Queries) ListParentServiceMap(ctx context.Context) ([]ParentServiceMap, error) {
	rows, err := q.query(ctx, q.listParentServiceMapStmt, listParentServiceMap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ParentServiceMap
	for rows.Next() {
		var i ParentServiceMap
		if err := rows.Scan(&i.ID, &i.Tree, &i.HazardClassID, &i.ServiceClassID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ─── SEEDING ──────────────────────────────────────────────────────────────────

const truncateCatalog = `-- name: TruncateCatalog :exec
TRUNCATE parent_service_map, service_map, code_hazard_rules, item_hazard_rules,
         taxonomy_subclasses, taxonomy_classes RESTART IDENTITY
`

func (q *Queries) TruncateCatalog(ctx context.Context) error {
	_, err := q.exec(ctx, q.truncateCatalogStmt, truncateCatalog)
	return err
}

const insertTaxonomyClass = `-- name: InsertTaxonomyClass :exec
INSERT INTO taxonomy_classes (tree, id, label, description)
VALUES ($1, $2, $3, $4)
`

type InsertTaxonomyClassParams struct {
	Tree        string `json:"tree"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func (q *Queries) InsertTaxonomyClass(ctx context.Context, arg InsertTaxonomyClassParams) error {
	_, err := q.exec(ctx, q.insertTaxonomyClassStmt, insertTaxonomyClass,
		arg.Tree,
		arg.ID,
		arg.Label,
		arg.Description,
	)
	return err
}

const insertTaxonomySubclass = `-- name: InsertTaxonomySubclass :exec
INSERT INTO taxonomy_subclasses (tree, id, parent_class_id, label, description)
VALUES ($1, $2, $3, $4, $5)
`

type InsertTaxonomySubclassParams struct {
	Tree          string `json:"tree"`
	ID            string `json:"id"`
	ParentClassID string `json:"parent_class_id"`
	Label         string `json:"label"`
	Description   string `json:"description"`
}

func (q *Queries) InsertTaxonomySubclass(ctx context.Context, arg InsertTaxonomySubclassParams) error {
	_, err := q.exec(ctx, q.insertTaxonomySubclassStmt, insertTaxonomySubclass,
		arg.Tree,
		arg.ID,
		arg.ParentClassID,
		arg.Label,
		arg.Description,
	)
	return err
}

const insertItemHazardRule = `-- name: InsertItemHazardRule :exec
INSERT INTO item_hazard_rules (domain, item, score_min, score_max, hazard_subclass_id, hazard_class_id)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertItemHazardRuleParams struct {
	Domain           string         `json:"domain"`
	Item             string         `json:"item"`
	ScoreMin         int32          `json:"score_min"`
	ScoreMax         int32          `json:"score_max"`
	HazardSubclassID sql.NullString `json:"hazard_subclass_id"`
	HazardClassID    sql.NullString `json:"hazard_class_id"`
}

func (q *Queries) InsertItemHazardRule(ctx context.Context, arg InsertItemHazardRuleParams) error {
	_, err := q.exec(ctx, q.insertItemHazardRuleStmt, insertItemHazardRule,
		arg.Domain,
		arg.Item,
		arg.ScoreMin,
		arg.ScoreMax,
		arg.HazardSubclassID,
		arg.HazardClassID,
	)
	return err
}

const insertCodeHazardRule = `-- name: InsertCodeHazardRule :exec
INSERT INTO code_hazard_rules (domain, code, hazard_subclass_id, hazard_class_id)
VALUES ($1, $2, $3, $4)
`

type InsertCodeHazardRuleParams struct {
	Domain           string         `json:"domain"`
	Code             string         `json:"code"`
	HazardSubclassID sql.NullString `json:"hazard_subclass_id"`
	HazardClassID    sql.NullString `json:"hazard_class_id"`
}

func (q *Queries) InsertCodeHazardRule(ctx context.Context, arg InsertCodeHazardRuleParams) error {
	_, err := q.exec(ctx, q.insertCodeHazardRuleStmt, insertCodeHazardRule,
		arg.Domain,
		arg.Code,
		arg.HazardSubclassID,
		arg.HazardClassID,
	)
	return err
}

const insertServiceMapping = `-- name: InsertServiceMapping :exec
INSERT INTO service_map (tree, hazard_subclass_id, service_subclass_id, service_class_id)
VALUES ($1, $2, $3, $4)
`

type InsertServiceMappingParams struct {
	Tree              string `json:"tree"`
	HazardSubclassID  string `json:"hazard_subclass_id"`
	ServiceSubclassID string `json:"service_subclass_id"`
	ServiceClassID    string `json:"service_class_id"`
}

func (q *Queries) InsertServiceMapping(ctx context.Context, arg InsertServiceMappingParams) error {
	_, err := q.exec(ctx, q.insertServiceMappingStmt, insertServiceMapping,
		arg.Tree,
		arg.HazardSubclassID,
		arg.ServiceSubclassID,
		arg.ServiceClassID,
	)
	return err
}

const insertParentServiceMapping = `-- name: InsertParentServiceMapping :exec
INSERT INTO parent_service_map (tree, hazard_class_id, service_class_id)
VALUES ($1, $2, $3)
`

type InsertParentServiceMappingParams struct {
	Tree           string `json:"tree"`
	HazardClassID  string `json:"hazard_class_id"`
	ServiceClassID string `json:"service_class_id"`
}

func (q *Queries) InsertParentServiceMapping(ctx context.Context, arg InsertParentServiceMappingParams) error {
	_, err := q.exec(ctx, q.insertParentServiceMappingStmt, insertParentServiceMapping,
		arg.Tree,
		arg.HazardClassID,
		arg.ServiceClassID,
	)
	return err
}
