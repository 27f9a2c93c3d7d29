package domain

// PresetColors is the palette offered when creating a parameter.
var PresetColors = []string{
	"#3B82F6", // blue
	"#EF4444", // red
	"#10B981", // green
	"#F59E0B", // amber
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#14B8A6", // teal
	"#F97316", // orange
	"#06B6D4", // cyan
	"#84CC16", // lime
	"#6366F1", // indigo
	"#F43F5E", // rose
}

// DefaultColor is assigned to drafts that leave the color empty.
const DefaultColor = "#3B82F6"

// BuiltinParameters returns the parameters preloaded on first run.
func BuiltinParameters() []Parameter {
	return []Parameter{
		{ID: "hemoglobin", Name: "Hemoglobin", Unit: "g/L", NormalRange: NormalRange{Min: 120, Max: 160}, Color: "#3B82F6"},
		{ID: "erythrocytes", Name: "Erythrocytes", Unit: "×10¹²/L", NormalRange: NormalRange{Min: 3.5, Max: 5.5}, Color: "#EF4444"},
		{ID: "leukocytes", Name: "Leukocytes", Unit: "×10⁹/L", NormalRange: NormalRange{Min: 4, Max: 9}, Color: "#10B981"},
		{ID: "platelets", Name: "Platelets", Unit: "×10⁹/L", NormalRange: NormalRange{Min: 180, Max: 320}, Color: "#F59E0B"},
		{ID: "esr", Name: "ESR", Unit: "mm/h", NormalRange: NormalRange{Min: 2, Max: 15}, Color: "#8B5CF6"},
		{ID: "glucose", Name: "Glucose", Unit: "mmol/L", NormalRange: NormalRange{Min: 3.3, Max: 5.5}, Color: "#EC4899"},
		{ID: "cholesterol", Name: "Cholesterol", Unit: "mmol/L", NormalRange: NormalRange{Min: 3, Max: 5.2}, Color: "#14B8A6"},
	}
}
