package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

type modelColumn struct {
	name  string
	index int
}

// modelColumnsCache maps a struct type to its db-tagged columns.
var modelColumnsCache sync.Map

// InsertModel inserts every db-tagged exported field of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	value, cols, err := inspectModel(model)
	if err != nil {
		return "", nil, err
	}

	names := make([]string, len(cols))
	vals := make([]any, len(cols))
	for i, col := range cols {
		names[i] = col.name
		vals[i] = value.Field(col.index).Interface()
	}
	return InsertInto(table).Columns(names...).Values(vals...).Suffix(suffix).ToSQL()
}

// Columns lists the db tags of model in field order, for SELECT lists and conflict updates.
func Columns(model any) ([]string, error) {
	_, cols, err := inspectModel(model)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}
	return names, nil
}

func inspectModel(model any) (reflect.Value, []modelColumn, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	if cached, ok := modelColumnsCache.Load(typ); ok {
		return value, cached.([]modelColumn), nil
	}

	cols := make([]modelColumn, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, modelColumn{name: name, index: i})
	}
	if len(cols) == 0 {
		return reflect.Value{}, nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}

	modelColumnsCache.Store(typ, cols)
	return value, cols, nil
}
