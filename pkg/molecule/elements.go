package molecule

// covalentRadii holds single-bond covalent radii in angstroms for the
// elements that appear in typical structure files.
var covalentRadii = map[string]float32{
	"H":  0.31,
	"C":  0.76,
	"N":  0.71,
	"O":  0.66,
	"S":  1.05,
	"P":  1.07,
	"F":  0.57,
	"CL": 1.02,
	"BR": 1.20,
	"I":  1.39,
	"NA": 1.66,
	"K":  2.03,
	"MG": 1.41,
	"CA": 1.76,
	"MN": 1.39,
	"FE": 1.32,
	"CO": 1.26,
	"NI": 1.24,
	"CU": 1.32,
	"ZN": 1.22,
	"SE": 1.20,
}

// defaultRadius is used for elements not in the table (carbon-like).
const defaultRadius float32 = 0.76

// CovalentRadius returns the covalent radius for an element symbol in
// angstroms. Unknown elements get a carbon-like default so that every atom
// still renders at a plausible size.
func CovalentRadius(element string) float32 {
	if r, ok := covalentRadii[normalize(element)]; ok {
		return r
	}
	return defaultRadius
}

// cpkColors is the conventional CPK coloring per element, RGB in [0,1].
var cpkColors = map[string][3]float32{
	"H":  {1.00, 1.00, 1.00},
	"C":  {0.35, 0.35, 0.35},
	"N":  {0.19, 0.31, 0.97},
	"O":  {1.00, 0.05, 0.05},
	"S":  {1.00, 0.78, 0.20},
	"P":  {1.00, 0.50, 0.00},
	"F":  {0.56, 0.88, 0.31},
	"CL": {0.12, 0.94, 0.12},
	"BR": {0.65, 0.16, 0.16},
	"I":  {0.58, 0.00, 0.58},
	"NA": {0.67, 0.36, 0.95},
	"K":  {0.56, 0.25, 0.83},
	"MG": {0.54, 1.00, 0.00},
	"CA": {0.24, 1.00, 0.00},
	"FE": {0.88, 0.40, 0.20},
	"ZN": {0.49, 0.50, 0.69},
}

// unknownColor is the fallback for elements outside the CPK table.
var unknownColor = [3]float32{1.00, 0.08, 0.58}

// CPKColor returns the conventional element color, RGB in [0,1].
func CPKColor(element string) [3]float32 {
	if c, ok := cpkColors[normalize(element)]; ok {
		return c
	}
	return unknownColor
}

// chainPalette cycles over distinct chains when coloring by chain.
var chainPalette = [][3]float32{
	{0.40, 0.70, 1.00},
	{1.00, 0.60, 0.40},
	{0.50, 0.90, 0.50},
	{0.95, 0.55, 0.85},
	{1.00, 0.85, 0.35},
	{0.60, 0.85, 0.90},
	{0.80, 0.60, 1.00},
	{0.70, 0.80, 0.40},
}

// ChainColor returns a stable color for the nth distinct chain.
func ChainColor(n int) [3]float32 {
	if n < 0 {
		n = -n
	}
	return chainPalette[n%len(chainPalette)]
}

// secondaryColors maps fold classes to the usual cartoon colors.
var secondaryColors = map[SecondaryStructure][3]float32{
	Helix: {0.94, 0.25, 0.45},
	Sheet: {1.00, 0.78, 0.20},
	Coil:  {0.75, 0.75, 0.78},
}

// SecondaryColor returns the conventional color for a fold class.
func SecondaryColor(ss SecondaryStructure) [3]float32 {
	return secondaryColors[ss]
}

// normalize upper-cases a symbol so "Fe", "FE", and "fe" hit the same entry.
func normalize(element string) string {
	b := []byte(element)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
