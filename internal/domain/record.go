package domain

// Canonical field names produced by the normalizer. These are the only
// keys a normalized record carries.
const (
	FieldEquipmentName = "equipment_name"
	FieldType          = "type"
	FieldFlowrate      = "flowrate"
	FieldPressure      = "pressure"
	FieldTemperature   = "temperature"
)

// CanonicalFields lists every required internal field in a stable order.
var CanonicalFields = []string{
	FieldEquipmentName,
	FieldType,
	FieldFlowrate,
	FieldPressure,
	FieldTemperature,
}

// NumericFields are the canonical fields parsed as floating point.
var NumericFields = []string{
	FieldFlowrate,
	FieldPressure,
	FieldTemperature,
}

// Record is one normalized row keyed by canonical field name. String
// values for equipment_name and type, float64 for the numeric fields.
type Record map[string]any

// EquipmentName returns the display name field.
func (r Record) EquipmentName() string {
	v, _ := r[FieldEquipmentName].(string)
	return v
}

// Type returns the normalized category field.
func (r Record) Type() string {
	v, _ := r[FieldType].(string)
	return v
}

// Flowrate returns the flowrate metric.
func (r Record) Flowrate() float64 {
	v, _ := r[FieldFlowrate].(float64)
	return v
}

// Pressure returns the pressure metric.
func (r Record) Pressure() float64 {
	v, _ := r[FieldPressure].(float64)
	return v
}

// Temperature returns the temperature metric.
func (r Record) Temperature() float64 {
	v, _ := r[FieldTemperature].(float64)
	return v
}
