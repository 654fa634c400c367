package services

import (
	"strings"

	"viz-query-service/models"
)

// activeFacades picks the facades that constrain viewID. Facades exported by the
// view itself never apply. Facades taken from the store need data in common with
// their origin; without it the view is disabled.
func (b *QueryBuilder) activeFacades(nodes NodeRegistry, viewID string, explicit []*models.Facade) ([]*models.Facade, bool) {
	facades := explicit
	fromStore := explicit == nil
	if fromStore {
		if b.facades == nil || !b.facades.Has() {
			return nil, false
		}
		facades = b.facades.Get()
	}
	var active []*models.Facade
	for _, f := range facades {
		if f != nil && f.ViewID != viewID {
			active = append(active, f)
		}
	}
	if len(active) == 0 || !fromStore {
		return active, false
	}
	for _, origin := range origins(active) {
		if common := b.overlapOn(nodes).DataOverlap(viewID, origin, b.joinKey); len(common) == 0 {
			b.hooks.OnViewDisabled(viewID)
			return nil, true
		}
	}
	return active, false
}

// facadeClauses returns the hoisted clauses and the merged should clause of the facades.
func (b *QueryBuilder) facadeClauses(nodes NodeRegistry, tree models.QueryTree, facades []*models.Facade) ([]interface{}, models.Query) {
	target := tree.DataType()
	prefix := b.nestedPath + "."
	var outer, sameType, otherType []interface{}
	for _, f := range facades {
		source := f.DataSourceType()
		if source == "" {
			source = firstOf(b.underlyingDataTypes(nodes, f.ViewID))
		}
		differs := source != "" && target != "" && source != target

		var clauses []interface{}
		for _, key := range models.SortedKeys(f.Fields) {
			field := f.Fields[key]
			c := facadeFieldClause(key, field)
			if c == nil {
				continue
			}
			if differs {
				c = PrefixQuery(c, prefix)
			}
			if field.OutermostMustClause {
				if differs {
					c = nestedClause(b.nestedPath, c)
				}
				outer = append(outer, c)
				continue
			}
			clauses = append(clauses, c)
		}
		if f.MergesNested() {
			nested := b.originClauses(nodes, f)
			if differs {
				nested = prefixClauses(nested, prefix)
			}
			clauses = append(clauses, nested...)
		}
		if len(clauses) == 0 {
			continue
		}
		if differs {
			otherType = append(otherType, boolMust(clauses))
		} else {
			sameType = append(sameType, boolMust(clauses))
		}
	}

	var merged models.Query
	switch {
	case len(sameType) > 0 && len(otherType) > 0:
		merged = boolShould([]interface{}{
			boolShould(sameType),
			nestedClause(b.nestedPath, boolShould(otherType)),
		})
	case len(sameType) > 0:
		merged = boolShould(sameType)
	case len(otherType) > 0:
		merged = nestedClause(b.nestedPath, boolShould(otherType))
	}
	return outer, merged
}

// originClauses returns the must clauses of the facade origin's own query tree,
// or the facade's precomputed nested filters when it carries them.
func (b *QueryBuilder) originClauses(nodes NodeRegistry, f *models.Facade) []interface{} {
	if f.NestedFilters != nil {
		out := make([]interface{}, len(f.NestedFilters))
		for i, q := range f.NestedFilters {
			out[i] = models.CloneQuery(q)
		}
		return out
	}
	trees, err := BuildQueryTrees(nodes, f.ViewID)
	if err != nil {
		b.log.Warn().Err(err).Str("facade", f.ID).Msg("facade origin is gone, skipping its filters")
		return nil
	}
	if f.ActiveTree < 0 || f.ActiveTree >= len(trees) {
		b.log.Warn().Err(ErrTreeIndexOutOfRange).Str("facade", f.ID).Int("tree", f.ActiveTree).Int("trees", len(trees)).Msg("skipping facade origin filters")
		return nil
	}
	return b.treeClauses(trees[f.ActiveTree], nil)
}

func (b *QueryBuilder) underlyingDataTypes(nodes NodeRegistry, viewID string) []string {
	trees, err := BuildQueryTrees(nodes, viewID)
	if err != nil {
		return nil
	}
	var types []string
	for _, t := range trees {
		if dt := t.DataType(); dt != "" && !containsString(types, dt) {
			types = append(types, dt)
		}
	}
	return types
}

// facadeFieldClause builds the clause of one facade field, nil when it constrains nothing.
func facadeFieldClause(key string, field models.FacadeField) models.Query {
	if esids := splitESID(key); len(esids) > 1 {
		return compositeClause(esids, field.FieldValues, field.Operators)
	}
	if field.IsRange {
		var lower, upper interface{}
		if len(field.FieldValues) > 0 {
			lower = field.FieldValues[0]
		}
		if len(field.FieldValues) > 1 {
			upper = field.FieldValues[1]
		}
		bounds := RangeFilter(lower, upper)
		if bounds == nil {
			return nil
		}
		return rangeClause(key, bounds)
	}
	if len(field.FieldValues) == 0 {
		return nil
	}
	return termsClause(strings.TrimSpace(key), field.FieldValues)
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
