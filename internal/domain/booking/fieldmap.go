package booking

import "fmt"

// fieldColumns is the single bidirectional mapping between application field
// names (camelCase, the JSON surface) and storage column names (snake_case).
// Every persisted case field appears here exactly once; ValidateFieldMap
// enforces totality in both directions and runs at startup.
var fieldColumns = map[string]string{
	"id":                  "id",
	"referenceNumber":     "reference_number",
	"hospital":            "hospital",
	"department":          "department",
	"surgeryDate":         "surgery_date",
	"procedureType":       "procedure_type",
	"procedureName":       "procedure_name",
	"doctorId":            "doctor_id",
	"doctorName":          "doctor_name",
	"timeOfProcedure":     "time_of_procedure",
	"specialInstruction":  "special_instruction",
	"surgerySetSelection": "surgery_set_selection",
	"implantBox":          "implant_box",
	"status":              "status",
	"country":             "country",
	"isAmended":           "is_amended",
	"amendedBy":           "amended_by",
	"amendedAt":           "amended_at",
	"submittedBy":         "submitted_by",
	"submittedAt":         "submitted_at",
	"processedBy":         "processed_by",
	"processedAt":         "processed_at",
	"processOrderDetails": "process_order_details",
	"createdAt":           "created_at",
	"updatedAt":           "updated_at",
}

// columnFields is the reverse mapping, derived once from fieldColumns.
var columnFields = func() map[string]string {
	m := make(map[string]string, len(fieldColumns))
	for field, col := range fieldColumns {
		m[col] = field
	}
	return m
}()

// ColumnFor returns the storage column for an application field name.
func ColumnFor(field string) (string, bool) {
	col, ok := fieldColumns[field]
	return col, ok
}

// FieldFor returns the application field name for a storage column.
func FieldFor(column string) (string, bool) {
	field, ok := columnFields[column]
	return field, ok
}

// ValidateFieldMap verifies the mapping is a bijection: every field maps to
// exactly one column and every column back to exactly that field. Called at
// startup so a mapping mistake fails fast instead of silently dropping a
// field during translation.
func ValidateFieldMap() error {
	if len(columnFields) != len(fieldColumns) {
		return fmt.Errorf("field map is not bijective: %d fields map to %d columns",
			len(fieldColumns), len(columnFields))
	}
	for field, col := range fieldColumns {
		back, ok := columnFields[col]
		if !ok {
			return fmt.Errorf("column %q has no reverse mapping", col)
		}
		if back != field {
			return fmt.Errorf("field %q maps to column %q which maps back to %q", field, col, back)
		}
	}
	return nil
}
